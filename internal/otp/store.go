// Package otp stores one-time verification codes in Redis with a TTL, so
// any process instance can validate a code and expiry survives restarts.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"bloodbridge-backend/internal/domain"
)

const keyPrefix = "otp:email:"

// DefaultTTL matches the verification window promised in the signup mail.
const DefaultTTL = 10 * time.Minute

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a code store from a Redis URL.
func NewStore(url string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Issue generates a six-digit code for the address and stores it under the
// configured TTL, replacing any earlier code.
func (s *Store) Issue(ctx context.Context, email string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64()+100000)

	if err := s.client.Set(ctx, keyPrefix+email, code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: store otp: %v", domain.ErrUpstream, err)
	}
	return code, nil
}

// Verify checks the submitted code. A match consumes the code; a missing key
// means the code expired (or was never issued).
func (s *Store) Verify(ctx context.Context, email, code string) error {
	stored, err := s.client.Get(ctx, keyPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: read otp: %v", domain.ErrUpstream, err)
	}
	if stored != code {
		return domain.ErrUnauthorized
	}
	s.client.Del(ctx, keyPrefix+email)
	return nil
}

// Invalidate drops any outstanding code for the address.
func (s *Store) Invalidate(ctx context.Context, email string) {
	s.client.Del(ctx, keyPrefix+email)
}
