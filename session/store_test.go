package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newStoreTest(t *testing.T) (*Store, *redis.Client) {
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
	return NewStore(rdb, "tn"), rdb
}

func testSession(id, username string) *Session {
	now := time.Now()
	return &Session{
		SessionID:     id,
		Authenticated: true,
		UserID:        "u-" + username,
		Username:      username,
		Email:         username + "@example.com",
		CreatedAt:     now.Unix(),
		ExpiresAt:     now.Add(time.Hour).Unix(),
		SchemaVersion: CurrentSchemaVersion,
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	store, _ := newStoreTest(t)
	ctx := context.Background()
	sess := testSession("sid-1", "a1")

	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, "sid-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SessionID != "sid-1" || got.Username != "a1" || got.Email != "a1@example.com" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if !got.Authenticated {
		t.Fatal("expected authenticated session")
	}
}

func TestGetUnknownSession(t *testing.T) {
	store, _ := newStoreTest(t)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil, got %v", err)
	}
}

func TestGetExpiredSessionIsDeleted(t *testing.T) {
	store, rdb := newStoreTest(t)
	ctx := context.Background()

	sess := testSession("sid-expired", "a1")
	sess.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := store.Get(ctx, "sid-expired"); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil for expired session, got %v", err)
	}

	exists, err := rdb.Exists(ctx, store.key("sid-expired")).Result()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists != 0 {
		t.Fatal("expired session key should have been deleted")
	}
}

func TestDeleteIdempotentAndIndexCleaned(t *testing.T) {
	store, rdb := newStoreTest(t)
	ctx := context.Background()
	sess := testSession("sid-1", "a1")

	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	existed, err := store.Delete(ctx, "sid-1")
	if err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if !existed {
		t.Fatal("first delete should report the session existed")
	}
	existed, err = store.Delete(ctx, "sid-1")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if existed {
		t.Fatal("second delete should report nothing existed")
	}

	members, err := rdb.SMembers(ctx, store.usernameKey("a1")).Result()
	if err != nil {
		t.Fatalf("smembers: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected empty username index, got %v", members)
	}
}

func TestDeleteAllForUsername(t *testing.T) {
	store, _ := newStoreTest(t)
	ctx := context.Background()

	var issued []string
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("sid-a1-%d", i)
		if err := store.Save(ctx, testSession(id, "a1"), time.Hour); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
		issued = append(issued, id)
	}
	if err := store.Save(ctx, testSession("sid-b2", "b2"), time.Hour); err != nil {
		t.Fatalf("save other user: %v", err)
	}

	count, err := store.DeleteAllForUsername(ctx, "a1")
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}

	for _, id := range issued {
		if _, err := store.Get(ctx, id); !errors.Is(err, redis.Nil) {
			t.Fatalf("session %s should be gone, got %v", id, err)
		}
	}

	// The other user's session is untouched.
	if _, err := store.Get(ctx, "sid-b2"); err != nil {
		t.Fatalf("unrelated session lost: %v", err)
	}

	// Second call finds nothing.
	count, err = store.DeleteAllForUsername(ctx, "a1")
	if err != nil {
		t.Fatalf("second delete all: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected count 0, got %d", count)
	}
}

func TestDeleteAllForUsernameIsCaseInsensitive(t *testing.T) {
	store, _ := newStoreTest(t)
	ctx := context.Background()

	if err := store.Save(ctx, testSession("sid-1", "Alice"), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	count, err := store.DeleteAllForUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}
}

func TestActiveSessionIDs(t *testing.T) {
	store, _ := newStoreTest(t)
	ctx := context.Background()

	if err := store.Save(ctx, testSession("sid-1", "a1"), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, testSession("sid-2", "a1"), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	ids, err := store.ActiveSessionIDs(ctx, "a1")
	if err != nil {
		t.Fatalf("active ids: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
}

func TestPing(t *testing.T) {
	store, _ := newStoreTest(t)
	if _, err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
