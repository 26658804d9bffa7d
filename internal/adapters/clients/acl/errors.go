package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/aquote/internal/adapters/clients"
	"github.com/jsamuelsen/aquote/internal/domain"
)

// maxErrorBodyBytes bounds how much of an error body is decoded.
const maxErrorBodyBytes = 4 << 10

// vendorErrorBody covers the two error shapes seen from JSON APIs:
// {"error": {"message": ...}} and {"message": ...}.
type vendorErrorBody struct {
	Nested struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// vendorMessage returns the message from a vendor error body, or "" when
// the body is absent, not JSON, or carries no message.
func vendorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	var parsed vendorErrorBody
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBodyBytes)).Decode(&parsed); err != nil {
		return ""
	}

	if parsed.Nested.Message != "" {
		return parsed.Nested.Message
	}

	return parsed.Message
}

// requestError converts an error from clients.Client.Get. A URL the client
// refused points at the vendor's configuration; anything else is transport.
func requestError(vendorKey string, err error) error {
	if errors.Is(err, clients.ErrInvalidURL) {
		return domain.NewConfigError("vendors."+vendorKey+".endpoint", err.Error())
	}

	return domain.NewTransportError(vendorKey, "", err)
}

// statusError converts a non-2xx response into a domain.TransportError,
// appending the vendor's own message when it sent one.
func statusError(vendorKey string, resp *http.Response) error {
	reason := describeStatus(resp.StatusCode)

	if msg := vendorMessage(resp.Body); msg != "" {
		reason += ": " + msg
	}

	return domain.NewTransportError(vendorKey, reason, nil)
}

func describeStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "endpoint not found (HTTP 404)"
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Sprintf("access denied (HTTP %d)", status)
	case http.StatusTooManyRequests:
		return "rate limit exceeded (HTTP 429)"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable (HTTP 503)"
	default:
		return fmt.Sprintf("unexpected status %d %s", status, http.StatusText(status))
	}
}
