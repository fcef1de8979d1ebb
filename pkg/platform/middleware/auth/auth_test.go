package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	id "trustgate/pkg/domain"
	"trustgate/pkg/requestcontext"
)

// MockJWTValidator is a testify mock for JWTValidator
type MockJWTValidator struct {
	mock.Mock
}

func (m *MockJWTValidator) ValidateToken(tokenString string) (*JWTClaims, error) {
	args := m.Called(tokenString)
	if claims := args.Get(0); claims != nil {
		return claims.(*JWTClaims), args.Error(1)
	}
	return nil, args.Error(1)
}

// mockHandler is a test handler that captures if it was called and the context
type mockHandler struct {
	called  bool
	context context.Context
}

func (m *mockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.called = true
	m.context = r.Context()
	w.WriteHeader(http.StatusOK)
}

type AuthMiddlewareTestSuite struct {
	suite.Suite
	validator   *MockJWTValidator
	logger      *slog.Logger
	nextHandler *mockHandler
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareTestSuite))
}

func (s *AuthMiddlewareTestSuite) SetupTest() {
	s.validator = new(MockJWTValidator)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.nextHandler = &mockHandler{}
}

func (s *AuthMiddlewareTestSuite) TearDownTest() {
	s.validator.AssertExpectations(s.T())
}

func (s *AuthMiddlewareTestSuite) makeRequest(authHeader string) *httptest.ResponseRecorder {
	handler := RequireAuth(s.validator, s.logger)(s.nextHandler)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func (s *AuthMiddlewareTestSuite) TestValidToken() {
	s.validator.On("ValidateToken", "valid-token").Return(&JWTClaims{TenantID: "acme", Subject: "ops@acme"}, nil)

	w := s.makeRequest("Bearer valid-token")

	require.True(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), id.TenantID("acme"), requestcontext.TenantID(s.nextHandler.context))
	assert.Equal(s.T(), "ops@acme", requestcontext.Actor(s.nextHandler.context))
}

func (s *AuthMiddlewareTestSuite) TestMissingHeader() {
	w := s.makeRequest("")

	assert.False(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.JSONEq(s.T(),
		`{"error":"unauthorized","error_description":"Missing or invalid Authorization header"}`,
		w.Body.String(),
	)
}

func (s *AuthMiddlewareTestSuite) TestNonBearerScheme() {
	w := s.makeRequest("Basic dXNlcjpwYXNz")

	assert.False(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *AuthMiddlewareTestSuite) TestInvalidToken() {
	s.validator.On("ValidateToken", "bad-token").Return(nil, errors.New("signature is invalid"))

	w := s.makeRequest("Bearer bad-token")

	assert.False(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.JSONEq(s.T(),
		`{"error":"unauthorized","error_description":"Invalid or expired token"}`,
		w.Body.String(),
	)
}

func (s *AuthMiddlewareTestSuite) TestMalformedTenantClaim() {
	s.validator.On("ValidateToken", "odd-token").Return(&JWTClaims{TenantID: "acme corp", Subject: "ops"}, nil)

	w := s.makeRequest("Bearer odd-token")

	assert.False(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *AuthMiddlewareTestSuite) TestMissingSubject() {
	s.validator.On("ValidateToken", "anon-token").Return(&JWTClaims{TenantID: "acme"}, nil)

	w := s.makeRequest("Bearer anon-token")

	assert.False(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func TestRequireTenantMatch(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pathTenant := func(r *http.Request) string { return r.URL.Query().Get("tenant") }

	tests := []struct {
		name          string
		authenticated id.TenantID
		path          string
		wantStatus    int
		wantCalled    bool
	}{
		{name: "matching tenant", authenticated: "acme", path: "/x?tenant=acme", wantStatus: http.StatusOK, wantCalled: true},
		{name: "other tenant", authenticated: "acme", path: "/x?tenant=globex", wantStatus: http.StatusForbidden},
		{name: "no authenticated tenant", path: "/x?tenant=acme", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &mockHandler{}
			handler := RequireTenantMatch(pathTenant, logger)(next)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if !tt.authenticated.IsNil() {
				req = req.WithContext(requestcontext.WithTenantID(req.Context(), tt.authenticated))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalled, next.called)
		})
	}
}
