// Package clients provides the HTTP client used to reach quote vendors.
package clients

import "errors"

// Failures below the vendor protocol. The acl package turns them into
// domain errors.
var (
	// ErrRequestFailed wraps the transport error when no response arrived.
	ErrRequestFailed = errors.New("request failed")

	// ErrInvalidURL means the endpoint could not be requested at all.
	ErrInvalidURL = errors.New("invalid request url")
)
