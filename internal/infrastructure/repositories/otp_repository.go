package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/you/blogauth/domain"
)

// OTPRepositoryImpl implements domain.OTPRepository on Redis. Each record is
// a hash at otp:<type>:<email> with a store-level TTL, so expiry needs no
// sweeper of its own. Upserting over the same key supersedes any previous
// code for the (email, type) pair.
type OTPRepositoryImpl struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOTPRepository creates a Redis-backed OTP repository.
func NewOTPRepository(client *redis.Client, ttl time.Duration) domain.OTPRepository {
	return &OTPRepositoryImpl{client: client, ttl: ttl}
}

func otpKey(otpType, email string) string {
	return "otp:" + otpType + ":" + email
}

// consumeScript is an atomic compare-and-delete: of two concurrent
// verifications with the same code, exactly one observes a match.
var consumeScript = redis.NewScript(`
local code = redis.call('HGET', KEYS[1], 'code')
if code == false then
  return -1
end
if code ~= ARGV[1] then
  return 0
end
redis.call('DEL', KEYS[1])
return 1
`)

// incrementScript bumps the attempt counter only when the record still
// exists, so a racing expiry cannot resurrect a stray key.
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
`)

// Upsert implements domain.OTPRepository.
func (r *OTPRepositoryImpl) Upsert(ctx context.Context, otp *domain.OTP) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	key := otpKey(otp.Type, otp.Email)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"code", otp.Code,
		"ip", otp.IP,
		"attempts", otp.Attempts,
		"created_at", otp.CreatedAt.Unix(),
	)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

// Find implements domain.OTPRepository.
func (r *OTPRepositoryImpl) Find(ctx context.Context, email, otpType string) (*domain.OTP, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	fields, err := r.client.HGetAll(ctx, otpKey(otpType, email)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read otp: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrOTPNotFound
	}

	attempts, _ := strconv.Atoi(fields["attempts"])
	createdAt, _ := strconv.ParseInt(fields["created_at"], 10, 64)
	return &domain.OTP{
		Email:     email,
		Code:      fields["code"],
		Type:      otpType,
		IP:        fields["ip"],
		Attempts:  attempts,
		CreatedAt: time.Unix(createdAt, 0),
	}, nil
}

// Consume implements domain.OTPRepository.
func (r *OTPRepositoryImpl) Consume(ctx context.Context, email, otpType, code string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := consumeScript.Run(ctx, r.client, []string{otpKey(otpType, email)}, code).Int()
	if err != nil {
		return fmt.Errorf("failed to consume otp: %w", err)
	}
	switch res {
	case -1:
		return domain.ErrOTPNotFound
	case 0:
		return domain.ErrOTPInvalidOrExpired
	}
	return nil
}

// IncrementAttempts implements domain.OTPRepository.
func (r *OTPRepositoryImpl) IncrementAttempts(ctx context.Context, email, otpType string) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := incrementScript.Run(ctx, r.client, []string{otpKey(otpType, email)}).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to increment otp attempts: %w", err)
	}
	if res == -1 {
		return 0, domain.ErrOTPNotFound
	}
	return res, nil
}

// Delete implements domain.OTPRepository.
func (r *OTPRepositoryImpl) Delete(ctx context.Context, email, otpType string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return r.client.Del(ctx, otpKey(otpType, email)).Err()
}

// DeleteAllForEmail implements domain.OTPRepository.
func (r *OTPRepositoryImpl) DeleteAllForEmail(ctx context.Context, email string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return r.client.Del(ctx,
		otpKey(domain.OTPTypeSignup, email),
		otpKey(domain.OTPTypeReset, email),
	).Err()
}

var _ domain.OTPRepository = (*OTPRepositoryImpl)(nil)
