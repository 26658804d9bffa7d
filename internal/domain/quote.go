// Package domain contains core business entities and rules.
package domain

import "time"

// Quote is a quotation fetched from a vendor.
// This is a domain entity - it has no knowledge of external systems.
// Quotes are immutable once created.
type Quote struct {
	// Text is the body of the quote.
	Text string

	// Author is who said or wrote the quote.
	Author string

	// URL links to the quote on the vendor's site. Nil when the vendor
	// declares no URL query or the query resolved to null.
	URL *string

	// VendorKey identifies the configured vendor that produced the quote.
	// It is only used for display lookups.
	VendorKey string

	// FetchTime is when the quote was fetched, in UTC.
	FetchTime time.Time
}

// URLString returns the quote URL, or the empty string if it has none.
func (q *Quote) URLString() string {
	if q.URL == nil {
		return ""
	}

	return *q.URL
}
