// Package auth mints and verifies HS256 tokens carrying a process id and a
// []int32 UID list, the shape of the credential set the registry's
// Permission checks (component B) run against. No transport in this
// repository calls it: sessions opened through wsgate carry an empty
// credential list.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the caller's process id and credential-set UIDs.
type Claims struct {
	PID   int32   `json:"pid"`
	UIDs  []int32 `json:"uids"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies HS256 credential tokens.
type Issuer struct {
	key []byte
}

func NewIssuer(signingKey string) *Issuer {
	return &Issuer{key: []byte(signingKey)}
}

// Mint issues a token for pid/uids valid for ttl.
func (iss *Issuer) Mint(pid int32, uids []int32, ttl time.Duration) (string, error) {
	claims := Claims{
		PID:  pid,
		UIDs: uids,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(iss.key)
}

// Verify parses and validates a token, returning its claims.
func (iss *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return iss.key, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
