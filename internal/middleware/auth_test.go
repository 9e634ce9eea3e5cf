package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerUser(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "bearer token", header: "Bearer user-1", want: "user-1"},
		{name: "padded token", header: "Bearer   user-1  ", want: "user-1"},
		{name: "missing header", header: "", want: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwdw==", want: ""},
		{name: "empty token", header: "Bearer ", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			handler := BearerUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = UserIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tc.want {
				t.Fatalf("UserIDFromContext() = %q, want %q", got, tc.want)
			}
		})
	}
}
