package tasknest

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/tasknest/tasknest/password"
	"github.com/tasknest/tasknest/session"
)

// Builder assembles an [Engine] from its injected dependencies. A Builder is
// single-use: Build returns an error when called twice.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	users  UserStore

	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client backing the session store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUsers sets the credential store.
func (b *Builder) WithUsers(store UserStore) *Builder {
	b.users = store
	return b
}

// WithAuditSink sets the sink receiving audit events. Ignored unless
// Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.users == nil {
		return nil, errors.New("user store is required")
	}

	hasher, err := password.New(password.Config{Cost: b.config.Password.Cost})
	if err != nil {
		return nil, err
	}

	b.built = true

	return &Engine{
		config:   b.config,
		users:    b.users,
		sessions: session.NewStore(b.redis, b.config.Session.RedisPrefix),
		hasher:   hasher,
		audit:    newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics:  NewMetrics(b.config.Metrics),
	}, nil
}
