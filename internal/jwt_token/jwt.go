package jwttoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
)

// TenantClaims are the claims carried by operator tokens. Subject names the
// operator and becomes the audit actor.
type TenantClaims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// JWTService mints and validates HS256 operator tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
	now        func() time.Time
}

func NewJWTService(signingKey string, issuer string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		tokenTTL:   tokenTTL,
		now:        time.Now,
	}
}

// GenerateToken signs a token scoped to one tenant. The returned string is
// the JWT id.
func (s *JWTService) GenerateToken(tenantID id.TenantID, subject string) (string, string, error) {
	if tenantID.IsNil() {
		return "", "", dErrors.New(dErrors.CodeInvalidInput, "tenant ID is required")
	}
	if subject == "" {
		return "", "", dErrors.New(dErrors.CodeInvalidInput, "subject is required")
	}

	now := s.now()
	jti := uuid.NewString()
	claims := TenantClaims{
		TenantID: tenantID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, jti, nil
}

// ValidateToken verifies the signature, algorithm, expiry and issuer.
func (s *JWTService) ValidateToken(tokenString string) (*TenantClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &TenantClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		if errors.Is(err, jwt.ErrTokenInvalidIssuer) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token issuer")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*TenantClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
