package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
	"github.com/oksasatya/hazard-reporting/pkg/helpers"
)

// Sender delivers the code to the phone.
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

// claimAttemptScript spends one attempt before the code is compared and returns
// {attempts, hash}. attempts is -1 when no challenge exists; hash is empty once the
// cap in ARGV[1] is exceeded, in which case the challenge is deleted.
var claimAttemptScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return {-1, ""}
end
local n = redis.call("HINCRBY", KEYS[1], "attempts", 1)
if n > tonumber(ARGV[1]) then
  redis.call("DEL", KEYS[1])
  return {n, ""}
end
return {n, redis.call("HGET", KEYS[1], "hash") or ""}
`)

// RedisProvider is a self-hosted OTP provider. Challenges live in a Redis hash keyed by
// phone and hold only the SHA-256 of the code.
type RedisProvider struct {
	rdb         *redis.Client
	sender      Sender
	ttl         time.Duration
	maxAttempts int
	appName     string
	logger      *logrus.Logger
	genCode     func() (string, error)
}

func NewRedisProvider(rdb *redis.Client, sender Sender, ttl time.Duration, maxAttempts int, appName string, logger *logrus.Logger) *RedisProvider {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &RedisProvider{
		rdb:         rdb,
		sender:      sender,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		appName:     appName,
		logger:      logger,
		genCode:     helpers.GenOTPCode,
	}
}

// RequestCode replaces any pending challenge for phone and sends a fresh code.
func (p *RedisProvider) RequestCode(ctx context.Context, phone string) (entity.OTPStatus, error) {
	code, err := p.genCode()
	if err != nil {
		return entity.OTPFailed, err
	}
	key := helpers.KeyPhoneOTP(phone)
	pipe := p.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, "hash", helpers.HashOTP(code), "attempts", 0)
	pipe.Expire(ctx, key, p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return entity.OTPFailed, fmt.Errorf("store otp: %w", err)
	}

	text := fmt.Sprintf("%s verification code: %s. Expires in %d minutes.", p.appName, code, int(p.ttl.Minutes()))
	if err := p.sender.Send(ctx, phone, text); err != nil {
		_ = p.rdb.Del(ctx, key).Err()
		if p.logger != nil {
			p.logger.WithError(err).WithField("phone", phone).Warn("otp sms delivery failed")
		}
		return entity.OTPFailed, nil
	}
	return entity.OTPPending, nil
}

// CheckCode consumes the challenge on success or once attempts are exhausted.
// Every check, right or wrong, spends an attempt before the comparison.
func (p *RedisProvider) CheckCode(ctx context.Context, phone, code string) (entity.OTPStatus, error) {
	key := helpers.KeyPhoneOTP(phone)
	res, err := claimAttemptScript.Run(ctx, p.rdb, []string{key}, p.maxAttempts).Slice()
	if err != nil {
		return entity.OTPFailed, fmt.Errorf("claim otp attempt: %w", err)
	}
	if len(res) != 2 {
		return entity.OTPFailed, fmt.Errorf("claim otp attempt: unexpected reply %v", res)
	}
	attempts, _ := res[0].(int64)
	hash, _ := res[1].(string)
	if attempts < 0 || hash == "" {
		return entity.OTPExpired, nil
	}

	if !helpers.OTPEqual(code, hash) {
		return entity.OTPRejected, nil
	}
	n, err := p.rdb.Del(ctx, key).Result()
	if err != nil {
		return entity.OTPFailed, err
	}
	if n == 0 {
		// consumed concurrently
		return entity.OTPExpired, nil
	}
	return entity.OTPApproved, nil
}
