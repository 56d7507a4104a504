// Package session persists authenticated sessions in Redis. Sessions survive
// process restarts; the store is the source of truth for who is logged in.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps any Redis transport failure so callers can map it
// to a server fault.
var ErrRedisUnavailable = errors.New("redis unavailable")

// deleteSessionScript removes a session key and its username-index entry in
// one round trip. Returns whether the session key existed.
const deleteSessionScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
end
return existed
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// Store is a Redis-backed session store. Alongside each session record it
// maintains a username→session-id SET index so that bulk logout is
// O(sessions-of-user) instead of a keyspace scan.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a session Store backed by the given Redis client. prefix
// namespaces all keys.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

// usernameKey is lowercased because username lookups are case-insensitive
// everywhere else.
func (s *Store) usernameKey(username string) string {
	return s.prefix + ":u:" + strings.ToLower(username)
}

// Save persists a session with the given TTL and indexes it under its
// username claim.
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	sessionKey := s.key(sess.SessionID)
	usernameKey := s.usernameKey(sess.Username)

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey, data, ttl)
		pipe.SAdd(ctx, usernameKey, sess.SessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get retrieves a session by ID. Missing and expired sessions both surface as
// redis.Nil; an expired record found before Redis evicted it is deleted on
// the way out.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.SessionID = sessionID

	if time.Now().Unix() >= sess.ExpiresAt {
		if _, err := s.deleteSessionAndIndex(ctx, sess.Username, sessionID); err != nil {
			return nil, err
		}
		return nil, redis.Nil
	}

	return sess, nil
}

// Delete removes a single session and its index entry, reporting whether the
// session existed. Deleting a session that no longer exists is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) (bool, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return false, err
	}

	return s.deleteSessionAndIndex(ctx, sess.Username, sessionID)
}

// DeleteAllForUsername removes every persisted session whose claims carry the
// given username and returns how many existed immediately prior.
//
// ATOMICITY NOTE: this is NOT one atomic operation. It reads the username
// index (SMembers), counts which sessions still exist (pipelined EXISTS),
// then deletes them (TxPipelined DEL). A session created by a concurrent
// login between the read and the delete is not captured; it expires
// naturally or falls to the next call. No stronger isolation is promised.
func (s *Store) DeleteAllForUsername(ctx context.Context, username string) (int, error) {
	usernameKey := s.usernameKey(username)

	sessionIDs, err := s.redis.SMembers(ctx, usernameKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sessionKeys := make([]string, 0, len(sessionIDs))
	for _, sessionID := range sessionIDs {
		sessionKeys = append(sessionKeys, s.key(sessionID))
	}

	// The index may hold IDs whose session keys already expired; the count
	// reflects sessions that actually existed.
	var existing int
	if len(sessionKeys) > 0 {
		pipe := s.redis.Pipeline()
		existsCmds := make([]*redis.IntCmd, len(sessionKeys))
		for i, sessionKey := range sessionKeys {
			existsCmds[i] = pipe.Exists(ctx, sessionKey)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		for _, cmd := range existsCmds {
			v, cmdErr := cmd.Result()
			if cmdErr != nil {
				return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
			}
			existing += int(v)
		}
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(sessionKeys) > 0 {
			pipe.Del(ctx, sessionKeys...)
		}
		pipe.Del(ctx, usernameKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return existing, nil
}

// ActiveSessionIDs returns the indexed session IDs for a username. The index
// may briefly contain IDs of already-expired sessions.
func (s *Store) ActiveSessionIDs(ctx context.Context, username string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.usernameKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ids, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

// deleteSessionAndIndex reports whether the session key existed, as computed
// by the Lua script.
func (s *Store) deleteSessionAndIndex(ctx context.Context, username, sessionID string) (bool, error) {
	keys := []string{s.key(sessionID), s.usernameKey(username)}
	existed, err := deleteSessionLua.Run(ctx, s.redis, keys, sessionID).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return existed == 1, nil
}
