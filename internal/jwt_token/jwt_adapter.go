package jwttoken

import (
	dErrors "leadbook/pkg/domain-errors"
	authmw "leadbook/pkg/platform/middleware/auth"
)

// SessionValidator exposes JWTService to RequireAuth. It only accepts session
// tokens whose subject is the user they were issued for.
type SessionValidator struct {
	tokens *JWTService
}

func NewSessionValidator(tokens *JWTService) *SessionValidator {
	return &SessionValidator{tokens: tokens}
}

func (v *SessionValidator) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := v.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Subject != claims.UserID {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return &authmw.JWTClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		JTI:    claims.ID,
	}, nil
}
