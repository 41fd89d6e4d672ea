package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/infra/telemetry"
	"github.com/localsolutions/board-api/internal/usecase"
)

type stubAuthenticator struct {
	principals map[string]*domain.Principal
	errs       map[string]error
	calls      int
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	s.calls++
	if token == "" {
		return nil, usecase.ErrMissingToken
	}
	if err, ok := s.errs[token]; ok {
		return nil, err
	}
	if principal, ok := s.principals[token]; ok {
		return principal, nil
	}
	return nil, usecase.ErrMalformedToken
}

type stubDecisionObserver struct {
	decisions []string
}

func (o *stubDecisionObserver) ObserveAuthDecision(outcome, reason string) {
	o.decisions = append(o.decisions, outcome+":"+reason)
}

func newGatedRouter(auth Authenticator, observer DecisionObserver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(EnrichContext(), Authenticate(NewAccessClassifier(nil), auth, observer))

	whoami := func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"user": ""})
			return
		}
		fromCtx, _ := domain.PrincipalFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user": principal.Username, "ctx_user": fromCtx.Username})
	}
	router.GET("/api/posts", whoami)
	router.POST("/api/posts", whoami)
	router.GET("/api/admin/dashboard", RequireRole(domain.RoleAdmin), whoami)
	return router
}

func TestAuthenticateRejectionReasons(t *testing.T) {
	auth := &stubAuthenticator{
		errs: map[string]error{
			"revoked": usecase.ErrTokenRevoked,
			"expired": fmt.Errorf("%w: exp", usecase.ErrTokenExpired),
			"ghost":   usecase.ErrUnknownSubject,
			"outage":  fmt.Errorf("%w: redis down", usecase.ErrInvalidToken),
		},
	}
	router := newGatedRouter(auth, nil)

	tests := []struct {
		header string
		reason string
	}{
		{"", usecase.ReasonMissingToken},
		{"Basic dXNlcjpwYXNz", usecase.ReasonMissingToken},
		{"Bearer ", usecase.ReasonMissingToken},
		{"Bearer revoked", usecase.ReasonRevoked},
		{"bearer expired", usecase.ReasonExpired},
		{"Bearer garbage", usecase.ReasonMalformedToken},
		{"Bearer ghost", usecase.ReasonUnknownSubject},
		{"Bearer outage", usecase.ReasonInvalidToken},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401, got %d", tt.header, rr.Code)
		}
		var body ErrorResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("%q: decode body: %v", tt.header, err)
		}
		if body.Error != tt.reason {
			t.Fatalf("%q: expected reason %s, got %s", tt.header, tt.reason, body.Error)
		}
		if body.TraceID == "" {
			t.Fatalf("%q: expected trace id in body", tt.header)
		}
	}
}

func TestAuthenticateAttachesPrincipal(t *testing.T) {
	auth := &stubAuthenticator{principals: map[string]*domain.Principal{
		"good": {UserID: 7, Username: "alice", Role: domain.RoleCustomer},
	}}
	router := newGatedRouter(auth, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["user"] != "alice" || body["ctx_user"] != "alice" {
		t.Fatalf("principal not propagated: %v", body)
	}
}

func TestAuthenticateSkipsPublicRequests(t *testing.T) {
	auth := &stubAuthenticator{}
	observer := &stubDecisionObserver{}
	router := newGatedRouter(auth, observer)

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("public read with a bad token should pass, got %d", rr.Code)
	}
	if auth.calls != 0 {
		t.Fatalf("public requests must not be authenticated")
	}
	if len(observer.decisions) != 1 || observer.decisions[0] != telemetry.OutcomeSkipped+":" {
		t.Fatalf("unexpected decisions %v", observer.decisions)
	}
}

func TestRequireRole(t *testing.T) {
	auth := &stubAuthenticator{principals: map[string]*domain.Principal{
		"customer": {UserID: 1, Username: "alice", Role: domain.RoleCustomer},
		"admin":    {UserID: 2, Username: "root", Role: domain.RoleAdmin},
	}}
	router := newGatedRouter(auth, nil)

	for token, want := range map[string]int{"customer": http.StatusForbidden, "admin": http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Fatalf("%s: expected %d, got %d", token, want, rr.Code)
		}
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"BEARER abc":   "abc",
		"Token abc":    "",
		"Bearer":       "",
		"":             "",
	}
	for header, want := range cases {
		got, ok := BearerToken(header)
		if got != want || ok != (want != "") {
			t.Fatalf("%q: expected %q, got %q (%v)", header, want, got, ok)
		}
	}
}
