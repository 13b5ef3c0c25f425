// Package redisstore keeps audit records in Redis, one sorted set per
// subject scored by creation time.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"entityaudit/internal/audit"
	"entityaudit/internal/uuid"
)

const defaultPrefix = "audit"

// noSubject stands in for an empty subject id in keys.
const noSubject = "_"

// Store implements audit.Store on Redis sorted sets.
type Store struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix. Defaults to "audit".
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a store on client.
func New(client redis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultPrefix, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect parses url, pings the server and returns a connected client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Create adds rec to its subject's sorted set.
func (s *Store) Create(ctx context.Context, rec audit.Record) (*audit.Record, error) {
	rec.ID = uuid.New()
	rec.CreatedAt = s.now().UTC()

	// ID is the first JSON field, so members sharing a score sort by their
	// time-ordered ID.
	member, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal audit record: %w", err)
	}

	err = s.client.ZAdd(ctx, s.key(rec.SubjectType, rec.SubjectID), redis.Z{
		Score:  float64(rec.CreatedAt.UnixMicro()),
		Member: string(member),
	}).Err()
	if err != nil {
		return nil, fmt.Errorf("zadd audit record: %w", err)
	}
	return &rec, nil
}

// Query returns a subject's records, newest first.
func (s *Store) Query(ctx context.Context, subjectType, subjectID string) ([]audit.Record, error) {
	members, err := s.client.ZRevRange(ctx, s.key(subjectType, subjectID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange audit records: %w", err)
	}

	records := make([]audit.Record, 0, len(members))
	for _, member := range members {
		var rec audit.Record
		if err := json.Unmarshal([]byte(member), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal audit record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Store) key(subjectType, subjectID string) string {
	if subjectID == "" {
		subjectID = noSubject
	}
	return fmt.Sprintf("%s:%s:%s", s.prefix, subjectType, subjectID)
}
