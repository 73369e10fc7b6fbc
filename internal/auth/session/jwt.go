package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// JWTIssuer signs {sub, iat, exp} with an HMAC-SHA256 server secret.
// Validation verifies signature and expiry with no storage access.
type JWTIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// JWTConfig configures the stateless issuer.
type JWTConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

func NewJWTIssuer(cfg JWTConfig) (*JWTIssuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("session: jwt secret required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &JWTIssuer{
		secret: cfg.Secret,
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    cfg.Now,
	}, nil
}

func (i *JWTIssuer) Stateless() bool { return true }

func (i *JWTIssuer) Mint(ctx context.Context, userID int64) (string, error) {
	now := i.now().UTC()
	claims := jwtv5.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwtv5.NewNumericDate(now),
		ExpiresAt: jwtv5.NewNumericDate(now.Add(i.ttl)),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tk.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign: %w", err)
	}
	return signed, nil
}

func (i *JWTIssuer) Validate(ctx context.Context, credential string) (int64, error) {
	var claims jwtv5.RegisteredClaims
	_, err := jwtv5.ParseWithClaims(credential, &claims,
		func(t *jwtv5.Token) (any, error) { return i.secret, nil },
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return 0, ErrExpired
		}
		return 0, ErrInvalid
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalid
	}
	return userID, nil
}

// Revoke is advisory: a stateless token stays verifiable until its
// natural expiry. Documented limitation of the jwt strategy.
func (i *JWTIssuer) Revoke(ctx context.Context, credential string) error {
	return nil
}
