package jwttoken

import (
	"trustgate/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *TenantClaims) *auth.JWTClaims {
	return &auth.JWTClaims{
		TenantID: claims.TenantID,
		Subject:  claims.Subject,
	}
}

// JWTServiceAdapter exposes JWTService as an auth.JWTValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*auth.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
