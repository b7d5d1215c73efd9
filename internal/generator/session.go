package generator

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/docflow-mcp/internal/log"
	"github.com/dshills/docflow-mcp/pkg/types"
)

// DefaultPoolSize is the number of sessions a SessionPool keeps open
const DefaultPoolSize = 8

// Session is an initialized generator bound to one configuration
type Session struct {
	Generator
	key     string
	created time.Time

	mu        sync.Mutex
	refs      int
	retired   bool
	closeOnce sync.Once
}

// NewSession initializes a generator for cfg. Failures are reported as
// *types.InitializationError.
func NewSession(ctx context.Context, cfg Config) (*Session, error) {
	g, err := New(ctx, cfg)
	if err != nil {
		provider := cfg.Provider
		if provider == "" {
			provider = DetectProvider()
		}
		return nil, &types.InitializationError{Provider: provider, Err: err}
	}
	return &Session{Generator: g, key: cfg.Key(), created: time.Now()}, nil
}

// Key returns the configuration key the session was created for
func (s *Session) Key() string {
	return s.key
}

// Created returns when the session was initialized
func (s *Session) Created() time.Time {
	return s.created
}

// acquire marks the session as held by one more request
func (s *Session) acquire() {
	s.mu.Lock()
	s.refs++
	s.mu.Unlock()
}

// Release hands back a session obtained from SessionPool.Get. A session
// evicted from the pool is closed once its last holder releases it.
func (s *Session) Release() {
	s.mu.Lock()
	if s.refs > 0 {
		s.refs--
	}
	done := s.retired && s.refs == 0
	s.mu.Unlock()

	if done {
		s.shutdown()
	}
}

// retire closes the session now if nobody holds it, or defers the close to
// the last Release
func (s *Session) retire() {
	s.mu.Lock()
	s.retired = true
	done := s.refs == 0
	s.mu.Unlock()

	if done {
		s.shutdown()
	}
}

func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		if err := s.Close(); err != nil {
			log.Warnf("close %s session: %v", s.Provider(), err)
		}
	})
}

// SessionPool reuses sessions across requests. Sessions are keyed by
// configuration and the least recently used one is retired once the pool
// is full. Callers Release what Get returns; a retired session stays usable
// until then.
type SessionPool struct {
	mu       sync.Mutex
	sessions *lru.Cache[string, *Session]
}

// NewSessionPool creates a pool holding at most size sessions
func NewSessionPool(size int) (*SessionPool, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	sessions, err := lru.NewWithEvict(size, func(_ string, s *Session) {
		s.retire()
	})
	if err != nil {
		return nil, err
	}
	return &SessionPool{sessions: sessions}, nil
}

// Get returns the session for cfg, initializing it on first use. The
// caller must Release it when done.
func (p *SessionPool) Get(ctx context.Context, cfg Config) (*Session, error) {
	key := cfg.Key()

	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.sessions.Get(key); ok {
		s.acquire()
		return s, nil
	}

	s, err := NewSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.acquire()
	p.sessions.Add(key, s)
	log.Debugf("opened %s session for model %s", s.Provider(), s.Model())
	return s, nil
}

// Len returns the number of open sessions
func (p *SessionPool) Len() int {
	return p.sessions.Len()
}

// Close retires every session in the pool. Sessions still held are closed
// when released.
func (p *SessionPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions.Purge()
	return nil
}
