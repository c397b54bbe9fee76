package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultTTL = time.Hour

	tokenIssuer        = "runweek-backend"
	revokedTokenPrefix = "runweek-revoked-token||"
)

var (
	ErrMissingToken = errors.New("missing auth token")
	ErrInvalidToken = errors.New("invalid auth token")
)

// Service issues and verifies the bearer tokens used by all protected
// routes. Tokens are stateless JWTs; a logout puts the token on a redis
// denylist until its natural expiry, so the verifier has to consult redis
// only for the revocation check.
type Service struct {
	secret      []byte
	ttl         time.Duration
	redisClient *redis.Client
	// ability to inject the clock (for unit testing token expiry)
	NowFunc func() time.Time
}

func NewService(
	secret string,
	ttl time.Duration,
	redisClient *redis.Client,
) *Service {
	return &Service{
		secret:      []byte(secret),
		ttl:         ttl,
		redisClient: redisClient,
		NowFunc:     time.Now,
	}
}

// IssueToken creates a signed token with the user id as the subject.
func (s *Service) IssueToken(userID string) (string, error) {
	now := s.NowFunc()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// VerifyToken validates the token signature, expiry and revocation status,
// and returns the user id it was issued for.
func (s *Service) VerifyToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(
		token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(func() time.Time { return s.NowFunc() }),
	)
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}

	revoked, err := s.isRevoked(ctx, token)
	if err != nil {
		return "", fmt.Errorf("check token revoked: %w", err)
	}
	if revoked {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// RevokeToken denylists a still-valid token, i.e. logs the user out.
func (s *Service) RevokeToken(ctx context.Context, token string) error {
	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(
		token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(func() time.Time { return s.NowFunc() }),
	); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	// keep the denylist entry only for as long as the token itself lives
	untilExpiry := claims.ExpiresAt.Sub(s.NowFunc())
	if untilExpiry <= 0 {
		return nil
	}

	cmdSet := s.redisClient.Set(ctx, revokedTokenPrefix+token, 1, untilExpiry)
	if err := cmdSet.Err(); err != nil {
		return fmt.Errorf("denylist token: %w", err)
	}

	return nil
}

func (s *Service) isRevoked(ctx context.Context, token string) (bool, error) {
	cmd := s.redisClient.Exists(ctx, revokedTokenPrefix+token)
	if err := cmd.Err(); err != nil {
		return false, err
	}
	return cmd.Val() > 0, nil
}
