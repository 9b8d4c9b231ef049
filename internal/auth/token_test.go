package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		wantToken   string
		wantPresent bool
	}{
		{"Bearer token", "Bearer abc.def", "abc.def", true},
		{"Extra spaces", "Bearer   abc  ", "abc", true},
		{"No header", "", "", false},
		{"Bearer without token", "Bearer ", "", false},
		{"Basic auth", "Basic user:pass", "", false},
		{"Scheme glued to token", "BearerXYZ", "", false},
		{"Scheme only", "Bearer", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			token, present := ExtractBearerToken(req)
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantPresent, present)
		})
	}
}
