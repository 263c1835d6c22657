package httpapi

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"luxepos/internal/domain"
)

const tokenIssuer = "luxepos"

var errInvalidToken = errors.New("invalid or expired token")

// TokenIssuer signs and verifies the bearer tokens handed out at login.
// A token alone does not authorize a request: the guard must still hold
// a live session.
type TokenIssuer struct {
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

type sessionClaims struct {
	jwtlib.RegisteredClaims
	Name string `json:"name"`
}

func NewTokenIssuer(secret string, tokenTTL time.Duration) *TokenIssuer {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), tokenTTL: tokenTTL, now: time.Now}
}

func (t *TokenIssuer) Issue(user domain.User) (domain.LoginResponse, error) {
	issuedAt := t.now().UTC()
	expiresAt := issuedAt.Add(t.tokenTTL)
	claims := sessionClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwtlib.NewNumericDate(issuedAt),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    tokenIssuer,
		},
		Name: user.Name,
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	return domain.LoginResponse{
		AccessToken: token,
		User:        user,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (t *TokenIssuer) ParseToken(tokenStr string) (domain.User, error) {
	claims := &sessionClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(tok *jwtlib.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	},
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithIssuer(tokenIssuer),
		jwtlib.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return domain.User{}, errInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return domain.User{}, errors.New("invalid token subject")
	}
	return domain.User{Email: sub, Name: claims.Name}, nil
}
