package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key the store writes.
const DefaultRedisPrefix = "chatflow:flow:"

// RedisStore persists revisions to Redis.
//
// Per flow it keeps a revision counter, a sorted set of revision numbers
// and one hash per revision holding the data and its timestamp. Save
// updates all three in one server-side script.
type RedisStore struct {
	client *redis.Client
	prefix string
	closed atomic.Bool
}

// NewRedisStore connects to the Redis server at url (redis://...) and
// verifies the connection.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStoreFromClient(client, DefaultRedisPrefix), nil
}

// NewRedisStoreFromClient wraps an existing client. The store owns the
// client and closes it on Close.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Client returns the underlying client.
func (r *RedisStore) Client() *redis.Client { return r.client }

func (r *RedisStore) seqKey(flowID string) string  { return r.prefix + flowID + ":seq" }
func (r *RedisStore) revsKey(flowID string) string { return r.prefix + flowID + ":revs" }
func (r *RedisStore) revKey(flowID string, rev int) string {
	return r.revPrefix(flowID) + strconv.Itoa(rev)
}
func (r *RedisStore) revPrefix(flowID string) string { return r.prefix + flowID + ":rev:" }

// saveScript writes one revision and advances the counter atomically.
// The counter is set last: a failed write leaves it unchanged.
//
// KEYS[1] counter, KEYS[2] revision set, KEYS[3] revision hash prefix.
// ARGV[1] data, ARGV[2] timestamp.
var saveScript = redis.NewScript(`
local rev = tonumber(redis.call('GET', KEYS[1]) or '0') + 1
redis.call('ZADD', KEYS[2], rev, rev)
redis.call('HSET', KEYS[3] .. rev, 'data', ARGV[1], 'ts', ARGV[2])
redis.call('SET', KEYS[1], rev)
return rev
`)

// Save implements Store.
func (r *RedisStore) Save(ctx context.Context, flowID string, data []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrStoreClosed
	}

	keys := []string{r.seqKey(flowID), r.revsKey(flowID), r.revPrefix(flowID)}
	rev, err := saveScript.Run(ctx, r.client, keys,
		data,
		time.Now().UTC().Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return 0, fmt.Errorf("save flow: %w", err)
	}
	return rev, nil
}

// Load implements Store.
func (r *RedisStore) Load(ctx context.Context, flowID string) ([]byte, error) {
	if r.closed.Load() {
		return nil, ErrStoreClosed
	}

	latest, err := r.client.ZRevRange(ctx, r.revsKey(flowID), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("latest revision: %w", err)
	}
	if len(latest) == 0 {
		return nil, ErrNotFound
	}
	rev, err := strconv.Atoi(latest[0])
	if err != nil {
		return nil, fmt.Errorf("parse revision %q: %w", latest[0], err)
	}
	return r.LoadRevision(ctx, flowID, rev)
}

// LoadRevision implements Store.
func (r *RedisStore) LoadRevision(ctx context.Context, flowID string, rev int) ([]byte, error) {
	if r.closed.Load() {
		return nil, ErrStoreClosed
	}

	data, err := r.client.HGet(ctx, r.revKey(flowID, rev), "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load flow: %w", err)
	}
	return data, nil
}

// List implements Store.
func (r *RedisStore) List(ctx context.Context, flowID string) ([]Info, error) {
	if r.closed.Load() {
		return nil, ErrStoreClosed
	}

	members, err := r.client.ZRange(ctx, r.revsKey(flowID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}

	revs := make([]int, len(members))
	stamps := make([]*redis.StringCmd, len(members))
	sizes := make([]*redis.IntCmd, len(members))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, m := range members {
			rev, err := strconv.Atoi(m)
			if err != nil {
				return fmt.Errorf("parse revision %q: %w", m, err)
			}
			revs[i] = rev
			stamps[i] = pipe.HGet(ctx, r.revKey(flowID, rev), "ts")
			sizes[i] = pipe.HStrLen(ctx, r.revKey(flowID, rev), "data")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}

	infos := make([]Info, 0, len(members))
	for i, rev := range revs {
		ts, _ := time.Parse(time.RFC3339Nano, stamps[i].Val())
		infos = append(infos, Info{
			FlowID:    flowID,
			Revision:  rev,
			Timestamp: ts,
			Size:      sizes[i].Val(),
		})
	}
	return infos, nil
}

// Delete implements Store.
func (r *RedisStore) Delete(ctx context.Context, flowID string) error {
	if r.closed.Load() {
		return ErrStoreClosed
	}

	members, err := r.client.ZRange(ctx, r.revsKey(flowID), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("delete flow: %w", err)
	}

	keys := []string{r.seqKey(flowID), r.revsKey(flowID)}
	for _, m := range members {
		keys = append(keys, r.revPrefix(flowID)+m)
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete flow: %w", err)
	}
	return nil
}

// Close implements Store.
func (r *RedisStore) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.client.Close()
}
