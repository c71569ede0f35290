// Package redisstore keeps persisted tokens in Redis so that several auth
// instances can share refresh and action tokens without sharing a database.
// Users stay in the SQL store.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/authcore/internal/auth/domain"
	"github.com/aussiebroadwan/authcore/internal/auth/store"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by Tokens.
const DefaultPrefix = "authcore"

// Keys:
//
//	{prefix}:tok:{purpose}:{hash}   hash   id, user, exp, bl, created
//	{prefix}:idx:{user}:{purpose}   set    token keys of one user and purpose
//	{prefix}:idx                    set    every index key, for housekeeping
//
// The scripts build the per-user index key from the stored user id, so the
// driver targets a single Redis node rather than a cluster.

const createScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "id", ARGV[1], "user", ARGV[2], "exp", ARGV[3], "bl", ARGV[4], "created", ARGV[5])
redis.call("PEXPIREAT", KEYS[1], ARGV[3])
redis.call("SADD", KEYS[2], KEYS[1])
redis.call("SADD", KEYS[3], KEYS[2])
return 1
`

const consumeScript = `
local h = redis.call("HMGET", KEYS[1], "id", "user", "exp", "bl", "created")
if not h[1] then
  return false
end
if h[4] ~= "0" or tonumber(h[3]) <= tonumber(ARGV[1]) then
  return false
end
redis.call("DEL", KEYS[1])
redis.call("SREM", ARGV[2] .. ":idx:" .. h[2] .. ":" .. ARGV[3], KEYS[1])
return h
`

const deleteSubjectScript = `
local members = redis.call("SMEMBERS", KEYS[1])
local n = 0
for _, key in ipairs(members) do
  n = n + redis.call("DEL", key)
end
redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], KEYS[1])
return n
`

const deleteExpiredScript = `
local now = tonumber(ARGV[1])
local n = 0
for _, idx in ipairs(redis.call("SMEMBERS", KEYS[1])) do
  for _, key in ipairs(redis.call("SMEMBERS", idx)) do
    local exp = redis.call("HGET", key, "exp")
    if (not exp) or tonumber(exp) <= now then
      redis.call("DEL", key)
      redis.call("SREM", idx, key)
      n = n + 1
    end
  end
  if redis.call("SCARD", idx) == 0 then
    redis.call("SREM", KEYS[1], idx)
  end
end
return n
`

var (
	createLua        = redis.NewScript(createScript)
	consumeLua       = redis.NewScript(consumeScript)
	deleteSubjectLua = redis.NewScript(deleteSubjectScript)
	deleteExpiredLua = redis.NewScript(deleteExpiredScript)
)

// Tokens implements store.Tokens on Redis. Consumption is a single Lua
// script, which Redis runs without interleaving other commands.
type Tokens struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewTokens wraps client. An empty prefix falls back to DefaultPrefix.
func NewTokens(client *redis.Client, prefix string) *Tokens {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Tokens{client: client, prefix: prefix, now: time.Now}
}

// Open parses a redis:// URL and returns a connected Tokens store.
func Open(ctx context.Context, url, prefix string) (*Tokens, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redisstore: parse url: %w", err)
	}
	t := NewTokens(redis.NewClient(opts), prefix)
	if err := t.Ping(ctx); err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("redisstore: ping: %w", err)
	}
	return t, nil
}

func (t *Tokens) Ping(ctx context.Context) error { return t.client.Ping(ctx).Err() }
func (t *Tokens) Close() error                   { return t.client.Close() }

func (t *Tokens) tokenKey(hash string, purpose domain.Purpose) string {
	return t.prefix + ":tok:" + string(purpose) + ":" + hash
}

func (t *Tokens) indexKey(userID string, purpose domain.Purpose) string {
	return t.prefix + ":idx:" + userID + ":" + string(purpose)
}

func (t *Tokens) registryKey() string {
	return t.prefix + ":idx"
}

func (t *Tokens) CreateToken(ctx context.Context, rec domain.TokenRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = t.now()
	}
	bl := "0"
	if rec.Blacklisted {
		bl = "1"
	}

	created, err := createLua.Run(ctx, t.client,
		[]string{
			t.tokenKey(rec.TokenHash, rec.Purpose),
			t.indexKey(rec.UserID, rec.Purpose),
			t.registryKey(),
		},
		rec.ID,
		rec.UserID,
		rec.ExpiresAt.UnixMilli(),
		bl,
		rec.CreatedAt.UnixMilli(),
	).Int64()
	if err != nil {
		return fmt.Errorf("redisstore: create token: %w", err)
	}
	if created == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (t *Tokens) FindToken(
	ctx context.Context,
	hash string,
	purpose domain.Purpose,
) (domain.TokenRecord, error) {
	vals, err := t.client.HMGet(ctx, t.tokenKey(hash, purpose), "id", "user", "exp", "bl", "created").Result()
	if err != nil {
		return domain.TokenRecord{}, mapNotFound(err)
	}

	rec, err := parseRecord(vals, hash, purpose)
	if err != nil {
		return domain.TokenRecord{}, err
	}
	if rec.Blacklisted || rec.Expired(t.now()) {
		return domain.TokenRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (t *Tokens) ConsumeToken(
	ctx context.Context,
	hash string,
	purpose domain.Purpose,
) (domain.TokenRecord, error) {
	res, err := consumeLua.Run(ctx, t.client,
		[]string{t.tokenKey(hash, purpose)},
		t.now().UnixMilli(),
		t.prefix,
		string(purpose),
	).Slice()
	if err != nil {
		return domain.TokenRecord{}, mapNotFound(err)
	}
	return parseRecord(res, hash, purpose)
}

func (t *Tokens) DeleteTokensForSubject(
	ctx context.Context,
	userID string,
	purpose domain.Purpose,
) (int64, error) {
	n, err := deleteSubjectLua.Run(ctx, t.client,
		[]string{t.indexKey(userID, purpose), t.registryKey()},
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("redisstore: delete tokens for subject: %w", err)
	}
	return n, nil
}

// DeleteExpiredTokens prunes index entries whose record expired. Redis drops
// the records themselves through PEXPIREAT; this keeps the index sets from
// growing without bound.
func (t *Tokens) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	n, err := deleteExpiredLua.Run(ctx, t.client,
		[]string{t.registryKey()},
		t.now().UnixMilli(),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("redisstore: delete expired tokens: %w", err)
	}
	return n, nil
}

var _ store.Tokens = (*Tokens)(nil)

func mapNotFound(err error) error {
	if errors.Is(err, redis.Nil) {
		return store.ErrNotFound
	}
	return err
}

// parseRecord decodes the id, user, exp, bl, created tuple returned by HMGET
// and the consume script.
func parseRecord(vals []any, hash string, purpose domain.Purpose) (domain.TokenRecord, error) {
	if len(vals) != 5 || vals[0] == nil {
		return domain.TokenRecord{}, store.ErrNotFound
	}

	str := func(i int) string {
		s, _ := vals[i].(string)
		return s
	}

	exp, err := strconv.ParseInt(str(2), 10, 64)
	if err != nil {
		return domain.TokenRecord{}, fmt.Errorf("redisstore: corrupt exp: %w", err)
	}
	created, err := strconv.ParseInt(str(4), 10, 64)
	if err != nil {
		return domain.TokenRecord{}, fmt.Errorf("redisstore: corrupt created: %w", err)
	}

	return domain.TokenRecord{
		ID:          str(0),
		TokenHash:   hash,
		UserID:      str(1),
		Purpose:     purpose,
		ExpiresAt:   time.UnixMilli(exp).UTC(),
		Blacklisted: str(3) != "0",
		CreatedAt:   time.UnixMilli(created).UTC(),
	}, nil
}
