package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "denylist:access:"

// AccessTokenDenylist tracks access tokens invalidated before their natural
// expiry (logout, sign-out-everywhere). Entries carry a TTL equal to the
// token's remaining lifetime, so the set never outlives the tokens in it.
type AccessTokenDenylist struct {
	client *redis.Client
}

func NewAccessTokenDenylist(client *redis.Client) *AccessTokenDenylist {
	return &AccessTokenDenylist{client: client}
}

func (d *AccessTokenDenylist) Deny(ctx context.Context, jti string, remaining time.Duration) error {
	if remaining <= 0 {
		return nil
	}
	return d.client.Set(ctx, denylistPrefix+jti, "denied", remaining).Err()
}

func (d *AccessTokenDenylist) IsDenied(ctx context.Context, jti string) (bool, error) {
	_, err := d.client.Get(ctx, denylistPrefix+jti).Result()
	if err == redis.Nil {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}
