package jwtmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New_OptionsValidation(t *testing.T) {
	valid := staticValidator{claims: map[string]any{"sub": "user-123"}}

	tests := []struct {
		name    string
		opts    []Option
		wantErr string
	}{
		{
			name:    "missing validator",
			opts:    []Option{},
			wantErr: "invalid middleware configuration: validator cannot be nil (use WithValidator)",
		},
		{
			name:    "nil validator",
			opts:    []Option{WithValidator(nil)},
			wantErr: "invalid option: validator cannot be nil (use WithValidator)",
		},
		{
			name: "valid minimal configuration",
			opts: []Option{WithValidator(valid)},
		},
		{
			name:    "nil error handler",
			opts:    []Option{WithValidator(valid), WithErrorHandler(nil)},
			wantErr: "invalid option: errorHandler cannot be nil",
		},
		{
			name:    "nil token extractor",
			opts:    []Option{WithValidator(valid), WithTokenExtractor(nil)},
			wantErr: "invalid option: tokenExtractor cannot be nil",
		},
		{
			name:    "empty exclusion list",
			opts:    []Option{WithValidator(valid), WithExclusionURLs(nil)},
			wantErr: "invalid option: exclusion URLs list cannot be empty",
		},
		{
			name:    "nil logger",
			opts:    []Option{WithValidator(valid), WithLogger(nil)},
			wantErr: "invalid option: logger cannot be nil",
		},
		{
			name:    "nil metrics",
			opts:    []Option{WithValidator(valid), WithMetrics(nil)},
			wantErr: "invalid option: metrics cannot be nil",
		},
		{
			name:    "nil tracer",
			opts:    []Option{WithValidator(valid), WithTracer(nil)},
			wantErr: "invalid option: tracer cannot be nil",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := New(tc.opts...)
			if tc.wantErr != "" {
				assert.EqualError(t, err, tc.wantErr)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, m.core)
			assert.NotNil(t, m.errorHandler)
			assert.NotNil(t, m.tokenExtractor)
			assert.IsType(t, &NoopMetrics{}, m.metrics)
			assert.IsType(t, &NoopTracer{}, m.tracer)
		})
	}
}

func TestWithExclusionURLs(t *testing.T) {
	m := &JWTMiddleware{}
	require.NoError(t, WithExclusionURLs([]string{"/healthz", "http://example.com/metrics"})(m))

	tests := []struct {
		url  string
		want bool
	}{
		{url: "/healthz", want: true},
		{url: "http://example.com/metrics", want: true},
		{url: "/metrics", want: false},
		{url: "/v1/me", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			assert.Equal(t, tc.want, m.exclusionURLHandler(req))
		})
	}
}
