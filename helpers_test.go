package tasknest

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

// memoryUserStore is an in-memory UserStore honoring the case-insensitive
// lookup and duplicate-key contract.
type memoryUserStore struct {
	mu    sync.Mutex
	seq   int
	users []UserRecord
}

func (m *memoryUserStore) FindByEmail(_ context.Context, email string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return UserRecord{}, ErrNotFound
}

func (m *memoryUserStore) FindByUsername(_ context.Context, username string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return UserRecord{}, ErrNotFound
}

func (m *memoryUserStore) Create(_ context.Context, input CreateUserInput) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, input.Email) {
			return UserRecord{}, &DuplicateKeyError{Field: "email"}
		}
		if strings.EqualFold(u.Username, input.Username) {
			return UserRecord{}, &DuplicateKeyError{Field: "username"}
		}
	}
	m.seq++
	user := UserRecord{
		UserID:       "u-" + strings.ToLower(input.Username),
		Name:         input.Name,
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: input.PasswordHash,
	}
	m.users = append(m.users, user)
	return user, nil
}

func (m *memoryUserStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Session.TTL = time.Hour
	cfg.Password.Cost = bcrypt.MinCost
	cfg.Audit.Enabled = false
	return cfg
}

func newTestEngine(t *testing.T) (*Engine, *memoryUserStore) {
	t.Helper()

	_, rdb := newTestRedis(t)
	users := &memoryUserStore{}

	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithUsers(users).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, users
}

func registerTestUser(t *testing.T, engine *Engine, username, email, pass string) UserRecord {
	t.Helper()
	user, err := engine.Register(context.Background(), RegisterRequest{
		Name:     "Test " + username,
		Email:    email,
		Username: username,
		Password: pass,
	})
	if err != nil {
		t.Fatalf("Register %s failed: %v", username, err)
	}
	return user
}
