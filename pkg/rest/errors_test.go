package rest

import (
	"errors"
	"strings"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		contains []string
	}{
		{
			name: "with reason",
			err: &APIError{
				StatusCode: 400,
				ErrorClass: ErrorClassClient,
				Reason:     "invalidQuery",
				Message:    "Syntax error",
			},
			contains: []string{"bigquery client error", "status 400", "invalidQuery: Syntax error"},
		},
		{
			name: "with wrapped error",
			err: &APIError{
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        errors.New("connection refused"),
			},
			contains: []string{"bigquery network error", "request failed", "connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, want it to contain %q", msg, want)
				}
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &APIError{ErrorClass: ErrorClassNetwork, Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestNewAPIError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		statusLine string
		body       string
		wantClass  ErrorClass
		wantReason string
		wantMsg    string
	}{
		{
			name:        "bad request envelope",
			status:      400,
			statusLine: "400 Bad Request",
			body:        `{"error":{"code":400,"message":"Unrecognized name: foo","status":"INVALID_ARGUMENT","errors":[{"reason":"invalidQuery"}]}}`,
			wantClass:   ErrorClassClient,
			wantReason: "invalidQuery",
			wantMsg:     "Unrecognized name: foo",
		},
		{
			name:        "403 rate limit",
			status:      403,
			statusLine: "403 Forbidden",
			body:        `{"error":{"code":403,"message":"Exceeded rate limits","errors":[{"reason":"rateLimitExceeded"}]}}`,
			wantClass:   ErrorClassRateLimit,
			wantReason: "rateLimitExceeded",
			wantMsg:     "Exceeded rate limits",
		},
		{
			name:        "403 access denied",
			status:      403,
			statusLine: "403 Forbidden",
			body:        `{"error":{"code":403,"message":"Access Denied","errors":[{"reason":"accessDenied"}]}}`,
			wantClass:   ErrorClassClient,
			wantReason: "accessDenied",
			wantMsg:     "Access Denied",
		},
		{
			name:       "429 without body",
			status:     429,
			statusLine: "429 Too Many Requests",
			body:       ``,
			wantClass:  ErrorClassRateLimit,
			wantMsg:    "429 Too Many Requests",
		},
		{
			name:       "503 plain text",
			status:     503,
			statusLine: "503 Service Unavailable",
			body:       `upstream unavailable`,
			wantClass:  ErrorClassServer,
			wantMsg:    "503 Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newAPIError(tt.status, tt.statusLine, []byte(tt.body))

			if err.ErrorClass != tt.wantClass {
				t.Errorf("ErrorClass = %q, want %q", err.ErrorClass, tt.wantClass)
			}
			if err.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", err.Reason, tt.wantReason)
			}
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", err.StatusCode, tt.status)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  bool
	}{
		{ErrorClassClient, false},
		{ErrorClassServer, true},
		{ErrorClassRateLimit, true},
		{ErrorClassNetwork, true},
		{"", false},
	}

	for _, tt := range tests {
		if got := shouldRetry(tt.class); got != tt.want {
			t.Errorf("shouldRetry(%q) = %v, want %v", tt.class, got, tt.want)
		}
	}
}

func TestClassOf(t *testing.T) {
	wrapped := errors.Join(errors.New("ctx"), &APIError{ErrorClass: ErrorClassServer})
	if got := classOf(wrapped); got != ErrorClassServer {
		t.Errorf("classOf(wrapped) = %q, want %q", got, ErrorClassServer)
	}
	if got := classOf(errors.New("plain")); got != "" {
		t.Errorf("classOf(plain) = %q, want empty", got)
	}
}
