package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
)

var tenantID = id.TenantID("acme")

func newService(ttl time.Duration) *JWTService {
	return NewJWTService("test-signing-key", "test-issuer", ttl)
}

func Test_GenerateToken(t *testing.T) {
	svc := newService(time.Minute)

	token, jti, err := svc.GenerateToken(tenantID, "ops@acme")
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acme", claims.TenantID)
	assert.Equal(t, "ops@acme", claims.Subject)
	assert.Equal(t, jti, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func Test_GenerateToken_RequiresTenantAndSubject(t *testing.T) {
	svc := newService(time.Minute)

	_, _, err := svc.GenerateToken("", "ops")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, _, err = svc.GenerateToken(tenantID, "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := newService(time.Minute).ValidateToken("invalid-token-string")
	require.ErrorContains(t, err, "invalid token")
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	svc := newService(time.Minute)
	issued := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issued }
	token, _, err := svc.GenerateToken(tenantID, "ops")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	require.ErrorContains(t, err, "token expired")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_WrongIssuer(t *testing.T) {
	token, _, err := NewJWTService("test-signing-key", "someone-else", time.Minute).GenerateToken(tenantID, "ops")
	require.NoError(t, err)

	_, err = newService(time.Minute).ValidateToken(token)
	require.ErrorContains(t, err, "issuer")
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	token, _, err := NewJWTService("other-key", "test-issuer", time.Minute).GenerateToken(tenantID, "ops")
	require.NoError(t, err)

	_, err = newService(time.Minute).ValidateToken(token)
	require.ErrorContains(t, err, "invalid token")
}

func Test_ValidateToken_RejectsAlgorithmConfusion(t *testing.T) {
	claims := TenantClaims{
		TenantID: tenantID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newService(time.Minute).ValidateToken(unsigned)
	require.Error(t, err)
}

func Test_Adapter(t *testing.T) {
	svc := newService(time.Minute)
	token, _, err := svc.GenerateToken(tenantID, "ops")
	require.NoError(t, err)

	claims, err := NewJWTServiceAdapter(svc).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acme", claims.TenantID)
	assert.Equal(t, "ops", claims.Subject)
}
