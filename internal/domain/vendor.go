package domain

import (
	"fmt"
	"slices"
)

// Vendor describes one quote provider: where to fetch from and how to
// pull the quote fields out of its JSON response.
type Vendor struct {
	// Name is the display name of the vendor.
	Name string

	// Homepage is the vendor's website. Optional.
	Homepage string

	// Endpoint is the URL queried with a GET request.
	Endpoint string

	// Queries select the quote fields from the response document.
	Queries VendorQueries
}

// VendorQueries holds the field queries for a vendor response.
type VendorQueries struct {
	Quote  string
	Author string
	// URL is optional. Empty means the vendor provides no quote URL.
	URL string
}

// DisplayName returns "name (homepage)", or just the name without a homepage.
func (v *Vendor) DisplayName() string {
	if v.Homepage == "" {
		return v.Name
	}

	return fmt.Sprintf("%s (%s)", v.Name, v.Homepage)
}

// VendorSet is the configured vendors plus the keys eligible for selection.
type VendorSet struct {
	Vendors map[string]Vendor
	Enabled []string
}

// Lookup returns the vendor configured under key.
func (s VendorSet) Lookup(key string) (Vendor, bool) {
	v, ok := s.Vendors[key]
	return v, ok
}

// IsEnabled reports whether key is eligible for selection.
func (s VendorSet) IsEnabled(key string) bool {
	return slices.Contains(s.Enabled, key)
}

// Keys returns all configured vendor keys in sorted order.
func (s VendorSet) Keys() []string {
	keys := make([]string, 0, len(s.Vendors))
	for k := range s.Vendors {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
