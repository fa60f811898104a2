package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const redisCacheTTL = 5 * time.Minute
const redisKeyPrefix = "zhenzhen:user:"

// UserStore answers whether a user id is on the allow-list.
type UserStore interface {
	Allowed(ctx context.Context, userID string) (bool, error)
}

// StaticUserStore resolves the allow-list from configuration. An empty
// list admits everyone, so a fresh deployment works before any users
// are provisioned.
type StaticUserStore struct {
	users map[string]struct{}
}

func NewStaticUserStore(userIDs []string) *StaticUserStore {
	users := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		users[id] = struct{}{}
	}
	return &StaticUserStore{users: users}
}

func (s *StaticUserStore) Allowed(_ context.Context, userID string) (bool, error) {
	if len(s.users) == 0 {
		return true, nil
	}
	_, ok := s.users[userID]
	return ok, nil
}

// CachedUserStore implements UserStore with PostgreSQL + Redis cache.
type CachedUserStore struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewCachedUserStore(db *pgxpool.Pool, rdb *redis.Client) *CachedUserStore {
	return &CachedUserStore{db: db, redis: rdb}
}

func (s *CachedUserStore) Allowed(ctx context.Context, userID string) (bool, error) {
	// Check Redis cache first
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, redisKeyPrefix+userID).Result()
		if err == nil {
			return cached == "1", nil
		}
	}

	// Query PostgreSQL
	allowed, err := s.lookupDB(ctx, userID)
	if err != nil {
		return false, err
	}

	// Cache in Redis
	if s.redis != nil {
		val := "0"
		if allowed {
			val = "1"
		}
		s.redis.Set(ctx, redisKeyPrefix+userID, val, redisCacheTTL)
	}

	return allowed, nil
}

func (s *CachedUserStore) lookupDB(ctx context.Context, userID string) (bool, error) {
	var allowed bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM allowed_users
			WHERE user_id = $1 AND status = 'active'
		)
	`, userID).Scan(&allowed)
	if err != nil {
		return false, fmt.Errorf("query allowed_users: %w", err)
	}

	if allowed {
		// Update last_seen_at asynchronously (fire-and-forget)
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			s.db.Exec(bgCtx, `UPDATE allowed_users SET last_seen_at = NOW() WHERE user_id = $1`, userID)
		}()
	}

	return allowed, nil
}
