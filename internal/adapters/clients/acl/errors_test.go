package acl

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/aquote/internal/adapters/clients"
	"github.com/jsamuelsen/aquote/internal/domain"
)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestVendorMessage(t *testing.T) {
	tests := map[string]struct {
		body string
		want string
	}{
		"nested":       {body: `{"error": {"code": "RATE", "message": "slow down"}}`, want: "slow down"},
		"flat":         {body: `{"code": "DOWN", "message": "maintenance"}`, want: "maintenance"},
		"empty object": {body: `{}`},
		"not json":     {body: `Service Unavailable`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, vendorMessage(strings.NewReader(tt.body)))
		})
	}

	assert.Empty(t, vendorMessage(nil))
}

func TestRequestError(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		cause := errors.New("dial tcp: refused")

		err := requestError("v", cause)

		require.ErrorIs(t, err, domain.ErrTransport)
		require.ErrorIs(t, err, cause)
	})

	t.Run("rejected url is a config problem", func(t *testing.T) {
		err := requestError("v", fmt.Errorf("%w: %q is not absolute", clients.ErrInvalidURL, "/x"))

		var cfgErr *domain.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "vendors.v.endpoint", cfgErr.Setting)
	})
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   string
	}{
		{status: http.StatusTooManyRequests, want: "rate limit exceeded"},
		{status: http.StatusForbidden, want: "access denied (HTTP 403)"},
		{status: http.StatusServiceUnavailable, body: `{"message": "back at noon"}`, want: "temporarily unavailable (HTTP 503): back at noon"},
		{status: http.StatusTeapot, want: "unexpected status 418"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := statusError("v", response(tt.status, tt.body))

			var transportErr *domain.TransportError
			require.ErrorAs(t, err, &transportErr)
			assert.Equal(t, "v", transportErr.Vendor)
			assert.Contains(t, transportErr.Reason, tt.want)
		})
	}
}
