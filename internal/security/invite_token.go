package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// InviteTokens issues and verifies the signed tokens embedded in
// invitation links. A token binds a family ID and member ID together
// with an expiry, so acceptance links cannot be forged or redirected
// to another family.
type InviteTokens struct {
	secret []byte
	ttl    time.Duration
}

// inviteClaims carries the invitation target inside the JWT
type inviteClaims struct {
	FamilyID string `json:"fid"`
	MemberID string `json:"mid"`
	jwt.RegisteredClaims
}

// NewInviteTokens creates a token issuer with the given signing secret
// and token lifetime
func NewInviteTokens(secret string, ttl time.Duration) *InviteTokens {
	return &InviteTokens{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed invitation token for a family member
func (t *InviteTokens) Issue(familyID, memberID string) (string, error) {
	now := time.Now()
	claims := inviteClaims{
		FamilyID: familyID,
		MemberID: memberID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign invitation token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns the family and member it targets
func (t *InviteTokens) Verify(tokenString string) (familyID, memberID string, err error) {
	var claims inviteClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("invalid invitation token: %w", err)
	}
	if !token.Valid {
		return "", "", errors.New("invalid invitation token")
	}
	if claims.FamilyID == "" || claims.MemberID == "" {
		return "", "", errors.New("invitation token missing target")
	}
	return claims.FamilyID, claims.MemberID, nil
}
