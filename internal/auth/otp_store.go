package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"stockpilot/internal/model"
)

const (
	emailCodeKeyPrefix = "otp:email:"
	codeDigits         = 6
	// MaxVerifyAttempts wrong guesses burn the outstanding code.
	MaxVerifyAttempts = 5
)

// KeyValue is the subset of the cache the OTP store needs. *cache.Client satisfies it.
type KeyValue interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Incr(ctx context.Context, key string, ttl time.Duration) int64
}

// OTPStore holds short-lived email verification codes.
type OTPStore interface {
	Issue(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, email, code string) (bool, error)
}

type otpStore struct {
	kv  KeyValue
	ttl time.Duration
}

// NewOTPStore creates an OTP store whose codes expire after ttl.
func NewOTPStore(kv KeyValue, ttl time.Duration) OTPStore {
	return &otpStore{kv: kv, ttl: ttl}
}

// Issue generates a fresh code for email, replacing any outstanding one and
// resetting its failed-attempt count. It fails when the store is unreachable.
func (s *otpStore) Issue(ctx context.Context, email string) (string, error) {
	if err := s.kv.Ping(ctx); err != nil {
		return "", fmt.Errorf("verification store unavailable: %w", err)
	}
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	if err := s.kv.Delete(ctx, attemptsKey(email)); err != nil {
		return "", fmt.Errorf("reset verification attempts: %w", err)
	}
	if err := s.kv.Set(ctx, emailCodeKey(email), []byte(code), s.ttl); err != nil {
		return "", fmt.Errorf("store verification code: %w", err)
	}
	return code, nil
}

// Verify reports whether code matches the outstanding code for email.
// A matching code is consumed. After MaxVerifyAttempts mismatches the code is
// deleted, so even the correct code is refused afterwards.
func (s *otpStore) Verify(ctx context.Context, email, code string) (bool, error) {
	key := emailCodeKey(email)
	stored, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load verification code: %w", err)
	}
	if stored == nil {
		return false, nil
	}
	if subtle.ConstantTimeCompare(stored, []byte(code)) != 1 {
		if s.kv.Incr(ctx, attemptsKey(email), s.ttl) >= MaxVerifyAttempts {
			if err := s.kv.Delete(ctx, key); err != nil {
				return false, fmt.Errorf("burn verification code: %w", err)
			}
		}
		return false, nil
	}
	if err := s.kv.Delete(ctx, key); err != nil {
		return false, fmt.Errorf("delete verification code: %w", err)
	}
	_ = s.kv.Delete(ctx, attemptsKey(email))
	return true, nil
}

// GenerateCode returns a zero-padded random six digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func emailCodeKey(email string) string {
	return emailCodeKeyPrefix + model.NormalizeEmail(email)
}

func attemptsKey(email string) string {
	return emailCodeKey(email) + ":attempts"
}
