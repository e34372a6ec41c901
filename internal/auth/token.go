// Package auth issues and verifies the signed identity tokens used by bearer
// routes and implements the ownership check for identity-scoped paths.
package auth

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/robertarktes/aircnc-server/internal/domain"
)

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity is the verified caller handed to identity-scoped handlers.
type Identity struct {
	Email     string
	ExpiresAt time.Time
}

type Token struct {
	Token     string
	ExpiresAt time.Time
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(email string) (Token, error) {
	if len(i.secret) == 0 {
		return Token{}, errors.Mark(errors.New("token signing secret is not configured"), domain.ErrUpstream)
	}
	now := i.now().UTC()
	exp := now.Add(i.ttl)
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, errors.Mark(errors.Wrap(err, "sign token"), domain.ErrUpstream)
	}
	return Token{Token: signed, ExpiresAt: exp}, nil
}

type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Verify checks an Authorization header value. A missing header is
// ErrUnauthorized; anything else that does not yield a valid, unexpired
// token is ErrForbidden.
func (v *Verifier) Verify(header string) (Identity, error) {
	if header == "" {
		return Identity{}, domain.ErrUnauthorized
	}
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || raw == "" {
		return Identity{}, errors.Wrap(domain.ErrForbidden, "malformed authorization header")
	}
	if len(v.secret) == 0 {
		return Identity{}, errors.Wrap(domain.ErrForbidden, "token secret is not configured")
	}

	claims := &Claims{}
	tok, err := v.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, errors.Wrapf(domain.ErrForbidden, "invalid token: %v", err)
	}

	id := Identity{Email: claims.Email}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}
