package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"expense_tracker/internal/service"
)

// minimal router wiring only the middleware + a protected endpoint
func newMiddlewareOnlyRouter(s *service.Service, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, nil, opts)
	r.Use(h.requestID)
	r.GET("/secure", h.userIdMiddleware, func(c *gin.Context) {
		uid, _ := currentUserID(c)
		c.JSON(http.StatusOK, gin.H{"ok": true, "userId": uid})
	})
	r.GET("/admin", h.adminMiddleware, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestUserIDMiddleware(t *testing.T) {
	cases := []struct {
		name   string
		header string
		code   int
		errMsg string
	}{
		{"missing header", "", http.StatusUnauthorized, "Access token required"},
		{"invalid scheme", "Token " + testToken, http.StatusUnauthorized, "Access token required"},
		{"bearer without token", "Bearer", http.StatusUnauthorized, "Access token required"},
		{"bearer blank token", "Bearer   ", http.StatusUnauthorized, "Access token required"},
		{"tampered token", "Bearer forged", http.StatusForbidden, "Invalid or expired token"},
		{"valid token", "Bearer " + testToken, http.StatusOK, ""},
	}

	r := newMiddlewareOnlyRouter(withAuth(&service.Service{}), Options{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := http.Header{}
			if tc.header != "" {
				h.Set("Authorization", tc.header)
			}
			w := doRequest(t, r, http.MethodGet, "/secure", "", h)
			if w.Code != tc.code {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.code, w.Body.String())
			}
			m := decodeMap(t, w)
			if tc.errMsg != "" {
				if m["error"] != tc.errMsg {
					t.Fatalf("error=%v want %q", m["error"], tc.errMsg)
				}
				return
			}
			if int(m["userId"].(float64)) != 7 {
				t.Fatalf("userId=%v want 7", m["userId"])
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tok, err := bearerToken("Bearer  abc ")
	if err != nil || tok != "abc" {
		t.Fatalf("got %q, %v", tok, err)
	}
	if _, err := bearerToken("bearer abc"); err != service.ErrMissingToken {
		t.Fatalf("lowercase scheme: err=%v", err)
	}
}

func TestAdminMiddleware(t *testing.T) {
	cases := []struct {
		name       string
		configured string
		sent       string
		code       int
	}{
		{"open when unconfigured", "", "", http.StatusOK},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong token", "s3cret", "guess", http.StatusUnauthorized},
		{"right token", "s3cret", "s3cret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newMiddlewareOnlyRouter(&service.Service{}, Options{AdminToken: tc.configured})
			h := http.Header{}
			if tc.sent != "" {
				h.Set(adminTokenHeader, tc.sent)
			}
			w := doRequest(t, r, http.MethodGet, "/admin", "", h)
			if w.Code != tc.code {
				t.Fatalf("status=%d want %d", w.Code, tc.code)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := newMiddlewareOnlyRouter(&service.Service{}, Options{})

	h := http.Header{}
	h.Set(requestIDHeader, "req-1")
	w := doRequest(t, r, http.MethodGet, "/admin", "", h)
	if got := w.Header().Get(requestIDHeader); got != "req-1" {
		t.Fatalf("propagated id = %q", got)
	}

	w = doRequest(t, r, http.MethodGet, "/admin", "", nil)
	if got := w.Header().Get(requestIDHeader); len(got) != 36 {
		t.Fatalf("generated id = %q, want a uuid", got)
	}
}
