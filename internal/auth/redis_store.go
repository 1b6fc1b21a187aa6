package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/safeguardai/console/internal/rbac"
)

// sessionRecord is the redis-side view of a live session. Holding it
// server-side lets sign-out revoke a token and lets a disabled record
// take effect on the next authentication.
type sessionRecord struct {
	UID      string    `json:"uid"`
	Email    string    `json:"email"`
	Role     rbac.Role `json:"role"`
	Degraded bool      `json:"degraded"`
}

type redisStore struct {
	client *redis.Client
}

func newRedisStore(client *redis.Client) *redisStore {
	return &redisStore{client: client}
}

func (r *redisStore) storeSession(ctx context.Context, tokenHash string, rec sessionRecord, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling session record: %w", err)
	}
	return r.client.Set(ctx, tokenSessionKey(tokenHash), payload, ttl).Err()
}

func (r *redisStore) getSession(ctx context.Context, tokenHash string) (*sessionRecord, error) {
	val, err := r.client.Get(ctx, tokenSessionKey(tokenHash)).Result()
	if err != nil {
		return nil, err
	}
	var rec sessionRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling session record: %w", err)
	}
	return &rec, nil
}

func (r *redisStore) deleteSession(ctx context.Context, tokenHash string) error {
	return r.client.Del(ctx, tokenSessionKey(tokenHash)).Err()
}

func (r *redisStore) deleteSessionsForUser(ctx context.Context, uid string) error {
	// Sessions are keyed by token hash; a reverse index tracks the
	// hashes issued per user so disable/delete can revoke them all.
	hashes, err := r.client.SMembers(ctx, userSessionsKey(uid)).Result()
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	for _, h := range hashes {
		pipe.Del(ctx, tokenSessionKey(h))
	}
	pipe.Del(ctx, userSessionsKey(uid))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisStore) indexSession(ctx context.Context, uid, tokenHash string, ttl time.Duration) error {
	pipe := r.client.Pipeline()
	pipe.SAdd(ctx, userSessionsKey(uid), tokenHash)
	pipe.Expire(ctx, userSessionsKey(uid), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func tokenSessionKey(tokenHash string) string {
	return fmt.Sprintf("session:token:%s", tokenHash)
}

func userSessionsKey(uid string) string {
	return fmt.Sprintf("session:user:%s", uid)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
