package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by an API token. Subject is the account id and ID is the
// session token, so a token stops working once its session is deleted.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenIssuer issues and verifies HS256 signed API tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenIssuer(secret []byte) *TokenIssuer {
	return &TokenIssuer{secret: secret, issuer: "chorify", now: time.Now}
}

// Issue signs a token for the given account and session.
func (t *TokenIssuer) Issue(accountID int64, sessionToken string, expiresAt time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(accountID, 10),
			ID:        sessionToken,
			IssuedAt:  jwt.NewNumericDate(t.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry of raw and returns the account
// id and session token it names.
func (t *TokenIssuer) Parse(raw string) (accountID int64, sessionToken string, err error) {
	var claims Claims
	_, err = jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return 0, "", fmt.Errorf("parse token: %w", err)
	}
	if claims.ID == "" {
		return 0, "", errors.New("parse token: missing jti claim")
	}
	accountID, err = strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse token subject: %w", err)
	}
	return accountID, claims.ID, nil
}
