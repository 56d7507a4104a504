package tasknest

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

// gateSink blocks every Emit until the gate is fed, forcing the dispatcher
// buffer to fill.
type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{gate: make(chan struct{})}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Contains(s string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Contains(b.buf.String(), s)
}

func newAuditTestEngine(t *testing.T, sink AuditSink) *Engine {
	t.Helper()

	_, rdb := newTestRedis(t)
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 32
	cfg.Audit.DropIfFull = false

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUsers(&memoryUserStore{}).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

func collectEvents(t *testing.T, sink *ChannelSink, n int) []AuditEvent {
	t.Helper()
	events := make([]AuditEvent, 0, n)
	timeout := time.After(2 * time.Second)
	for len(events) < n {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("expected %d audit events, got %d", n, len(events))
		}
	}
	return events
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	_, rdb := newTestRedis(t)
	sink := &countingSink{}

	cfg := testConfig()
	cfg.Audit.Enabled = false

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUsers(&memoryUserStore{}).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	registerTestUser(t, engine, "a1", "a@x.com", "s3cret-pass")
	_, _ = engine.Login(context.Background(), "a1", "wrong-pass-123")
	time.Sleep(30 * time.Millisecond)

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
}

func TestAuditSinkReceivesFlowEvents(t *testing.T) {
	sink := NewChannelSink(32)
	engine := newAuditTestEngine(t, sink)
	ctx := context.Background()

	registerTestUser(t, engine, "a1", "a@x.com", "s3cret-pass")
	sess, err := engine.Login(ctx, "a1", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := engine.LogoutAll(ctx, "a1"); err != nil {
		t.Fatalf("LogoutAll failed: %v", err)
	}

	events := collectEvents(t, sink, 3)
	byType := make(map[string]AuditEvent, len(events))
	for _, ev := range events {
		byType[ev.EventType] = ev
	}

	reg, ok := byType["register"]
	if !ok || !reg.Success || reg.Username != "a1" {
		t.Fatalf("unexpected register event: %+v", reg)
	}

	login, ok := byType["login"]
	if !ok || !login.Success || login.Username != "a1" || login.SessionID != sess.SessionID {
		t.Fatalf("unexpected login event: %+v", login)
	}

	logoutAll, ok := byType["logout_all"]
	if !ok || !logoutAll.Success || logoutAll.Metadata["destroyed"] != "1" {
		t.Fatalf("unexpected logout_all event: %+v", logoutAll)
	}

	for _, ev := range events {
		if ev.Error == "s3cret-pass" {
			t.Fatal("plaintext password leaked in audit error")
		}
		for _, v := range ev.Metadata {
			if v == "s3cret-pass" {
				t.Fatal("plaintext password leaked in audit metadata")
			}
		}
	}
}

func TestAuditFailedLoginEvent(t *testing.T) {
	sink := NewChannelSink(8)
	engine := newAuditTestEngine(t, sink)

	registerTestUser(t, engine, "a1", "a@x.com", "s3cret-pass")
	_, _ = engine.Login(context.Background(), "a1", "wrong-pass-123")

	events := collectEvents(t, sink, 2)
	var failed *AuditEvent
	for i := range events {
		if events[i].EventType == "login" {
			failed = &events[i]
		}
	}
	if failed == nil {
		t.Fatal("expected a login event")
	}
	if failed.Success {
		t.Fatal("expected failed login event")
	}
	if failed.Error == "" || failed.Error == "wrong-pass-123" {
		t.Fatalf("unexpected error field %q", failed.Error)
	}
}

func TestAuditBufferFullDropIfFullTrueDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	start := time.Now()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if dispatcher.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestAuditBufferFullDropIfFullFalseBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestAuditDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 4,
		DropIfFull: true,
	}, &countingSink{})

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Close()
	dispatcher.Close()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})
}

func TestAuditJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: auditLogin,
		Username:  "a1",
		Success:   true,
	})

	if !buf.Contains("\"event_type\":\"login\"") {
		t.Fatal("expected JSON log line to contain event type")
	}
	if !buf.Contains("\"username\":\"a1\"") {
		t.Fatal("expected JSON log line to contain username")
	}
}
