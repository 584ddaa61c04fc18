package flash

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/csemotors/internal/common"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store persists pending messages between two requests of the same client.
type Store interface {
	// Load returns the messages left by the previous response. A missing
	// entry is not an error.
	Load(r *http.Request) (map[Kind][]string, error)
	// Save persists msgs for the next request. An empty map clears any
	// previously stored messages.
	Save(w http.ResponseWriter, r *http.Request, msgs map[Kind][]string) error
}

// CookieOptions carries the cookie attributes shared by both stores.
type CookieOptions struct {
	Name   string
	Secure bool
}

func (o CookieOptions) name() string {
	if o.Name == "" {
		return common.FlashCookieName
	}
	return o.Name
}

func (o CookieOptions) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     o.name(),
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (o CookieOptions) clear(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(o.name()); err == nil {
		http.SetCookie(w, o.cookie("", -1))
	}
}

// CookieStore keeps messages client-side as base64url-encoded JSON.
type CookieStore struct {
	opts CookieOptions
}

func NewCookieStore(opts CookieOptions) *CookieStore {
	return &CookieStore{opts: opts}
}

func (s *CookieStore) Load(r *http.Request) (map[Kind][]string, error) {
	c, err := r.Cookie(s.opts.name())
	if err != nil {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil, fmt.Errorf("decode flash cookie: %w", err)
	}
	var msgs map[Kind][]string
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("decode flash cookie: %w", err)
	}
	return msgs, nil
}

func (s *CookieStore) Save(w http.ResponseWriter, r *http.Request, msgs map[Kind][]string) error {
	if len(msgs) == 0 {
		s.opts.clear(w, r)
		return nil
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.opts.cookie(base64.RawURLEncoding.EncodeToString(raw), 0))
	return nil
}

// redisClient is the subset of *redis.Client used by RedisStore.
type redisClient interface {
	GetDel(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// DefaultRedisTTL bounds how long unread messages live in Redis.
const DefaultRedisTTL = 10 * time.Minute

// RedisStore keeps messages server-side under "flash:<id>"; the cookie
// only carries the random id.
type RedisStore struct {
	client redisClient
	opts   CookieOptions
	ttl    time.Duration
}

func NewRedisStore(client redisClient, opts CookieOptions, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisStore{client: client, opts: opts, ttl: ttl}
}

func redisKey(id string) string { return "flash:" + id }

func (s *RedisStore) Load(r *http.Request) (map[Kind][]string, error) {
	c, err := r.Cookie(s.opts.name())
	if err != nil {
		return nil, nil
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return nil, fmt.Errorf("flash id: %w", err)
	}

	raw, err := s.client.GetDel(r.Context(), redisKey(c.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	var msgs map[Kind][]string
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("decode flash entry: %w", err)
	}
	return msgs, nil
}

func (s *RedisStore) Save(w http.ResponseWriter, r *http.Request, msgs map[Kind][]string) error {
	if len(msgs) == 0 {
		s.opts.clear(w, r)
		return nil
	}

	raw, err := json.Marshal(msgs)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	if err := s.client.Set(r.Context(), redisKey(id), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	http.SetCookie(w, s.opts.cookie(id, int(s.ttl/time.Second)))
	return nil
}
