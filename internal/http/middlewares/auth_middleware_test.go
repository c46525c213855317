package middlewares_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"blogpress/internal/auth"
	"blogpress/internal/http/middlewares"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f *fakeVerifier) VerifyAccessToken(token string) (*auth.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func protectedRouter(v middlewares.TokenVerifier, roles ...string) *gin.Engine {
	mw := middlewares.NewAuthMiddleware(v)

	r := gin.New()

	chain := []gin.HandlerFunc{mw.RequireAuth()}

	if len(roles) > 0 {
		chain = append(chain, mw.RequireRole(roles...))
	}

	chain = append(chain, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.POST("/protected", chain...)

	return r
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name           string
		header         string
		verifier       *fakeVerifier
		wantStatusCode int
	}{
		{
			name:           "missing_header",
			header:         "",
			verifier:       &fakeVerifier{},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "not_bearer",
			header:         "Basic abc123",
			verifier:       &fakeVerifier{},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid_token",
			header:         "Bearer bad-token",
			verifier:       &fakeVerifier{err: errors.New("invalid token")},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "valid_token",
			header:         "Bearer good-token",
			verifier:       &fakeVerifier{claims: &auth.Claims{UserID: "u1", Role: "author"}},
			wantStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			r := protectedRouter(tt.verifier)

			req := httptest.NewRequest(http.MethodPost, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name           string
		role           string
		allowed        []string
		wantStatusCode int
	}{
		{
			name:           "author_can_write",
			role:           "author",
			allowed:        []string{"author", "administrator"},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "administrator_can_write",
			role:           "administrator",
			allowed:        []string{"author", "administrator"},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "reader_is_forbidden",
			role:           "reader",
			allowed:        []string{"author", "administrator"},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "author_is_not_admin",
			role:           "author",
			allowed:        []string{"administrator"},
			wantStatusCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			v := &fakeVerifier{claims: &auth.Claims{UserID: "u1", Role: tt.role}}
			r := protectedRouter(v, tt.allowed...)

			req := httptest.NewRequest(http.MethodPost, "/protected", nil)
			req.Header.Set("Authorization", "Bearer token")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
