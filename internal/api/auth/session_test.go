package auth

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T, now *time.Time) *SessionStore {
	t.Helper()
	store := NewSessionStore(time.Hour)
	store.now = func() time.Time { return *now }
	t.Cleanup(store.Close)
	return store
}

func TestSessionStoreLifecycle(t *testing.T) {
	now := time.Date(2024, 3, 5, 15, 30, 0, 0, time.UTC)
	store := newTestStore(t, &now)

	token, expiresAt, err := store.Create(7)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(token) < 40 {
		t.Fatalf("token too short: %q", token)
	}
	if !expiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expires at %v", expiresAt)
	}

	if userID, ok := store.Lookup(token); !ok || userID != 7 {
		t.Fatalf("lookup = %d, %v", userID, ok)
	}
	if _, ok := store.Lookup("unknown"); ok {
		t.Fatal("expected unknown token to miss")
	}

	now = now.Add(time.Hour)
	if _, ok := store.Lookup(token); ok {
		t.Fatal("expected expired session to miss")
	}
	if store.Len() != 0 {
		t.Fatalf("expired session not removed, len = %d", store.Len())
	}
}

func TestSessionStoreReplacesEarlierSessions(t *testing.T) {
	now := time.Date(2024, 3, 5, 15, 30, 0, 0, time.UTC)
	store := newTestStore(t, &now)

	first, _, err := store.Create(7)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	other, _, err := store.Create(8)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, _, err := store.Create(7)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, ok := store.Lookup(first); ok {
		t.Fatal("expected first session to be replaced")
	}
	if _, ok := store.Lookup(second); !ok {
		t.Fatal("expected second session to be live")
	}
	if _, ok := store.Lookup(other); !ok {
		t.Fatal("expected other user's session to survive")
	}
}

func TestSessionStorePrune(t *testing.T) {
	now := time.Date(2024, 3, 5, 15, 30, 0, 0, time.UTC)
	store := newTestStore(t, &now)

	if _, _, err := store.Create(1); err != nil {
		t.Fatalf("create: %v", err)
	}
	now = now.Add(30 * time.Minute)
	if _, _, err := store.Create(2); err != nil {
		t.Fatalf("create: %v", err)
	}
	now = now.Add(45 * time.Minute)

	store.prune()
	if store.Len() != 1 {
		t.Fatalf("len after prune = %d", store.Len())
	}
}

func TestSessionStoreCloseIsIdempotent(t *testing.T) {
	store := NewSessionStore(0)
	if store.ttl != DefaultSessionTTL {
		t.Fatalf("ttl = %v", store.ttl)
	}
	if _, _, err := store.Create(1); err != nil {
		t.Fatalf("create: %v", err)
	}
	store.Close()
	store.Close()
}
