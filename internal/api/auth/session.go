package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/codr1/Escapade/internal/api/authz"
	"github.com/codr1/Escapade/internal/users"
)

const (
	sessionCookieName      = "escapade_session"
	DefaultSessionTTL      = 8 * time.Hour
	sessionTokenBytes      = 32
	sessionCleanupInterval = 15 * time.Minute
)

type sessionRecord struct {
	UserID    int64
	ExpiresAt time.Time
}

// SessionStore keeps login sessions in memory. Sessions do not survive a
// restart.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]sessionRecord
	ttl      time.Duration
	now      func() time.Time

	cleanupOnce sync.Once
	closeOnce   sync.Once
	done        chan struct{}
}

// NewSessionStore builds a store whose sessions last ttl. A ttl of 0 uses
// DefaultSessionTTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions: make(map[string]sessionRecord),
		ttl:      ttl,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Create starts a session for userID and drops any earlier sessions the user
// held.
func (s *SessionStore) Create(userID int64) (string, time.Time, error) {
	s.startCleanup()

	token, err := newSessionToken()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := s.now().Add(s.ttl)

	s.mu.Lock()
	for existing, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, existing)
		}
	}
	s.sessions[token] = sessionRecord{UserID: userID, ExpiresAt: expiresAt}
	s.mu.Unlock()

	return token, expiresAt, nil
}

// Lookup returns the user id for a live session. Expired sessions are
// removed.
func (s *SessionStore) Lookup(token string) (int64, bool) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return 0, false
	}
	if !session.ExpiresAt.After(s.now()) {
		s.Delete(token)
		return 0, false
	}
	return session.UserID, true
}

func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the cleanup goroutine.
func (s *SessionStore) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *SessionStore) startCleanup() {
	s.cleanupOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(sessionCleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					s.prune()
				case <-s.done:
					return
				}
			}
		}()
	})
}

func (s *SessionStore) prune() {
	now := s.now()
	s.mu.Lock()
	for token, session := range s.sessions {
		if !session.ExpiresAt.After(now) {
			delete(s.sessions, token)
		}
	}
	s.mu.Unlock()
}

func newSessionToken() (string, error) {
	token := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(token), nil
}

// CreateSession signs userID in and sets the session cookie.
func CreateSession(w http.ResponseWriter, userID int64) error {
	if w == nil {
		return errors.New("session requires response writer")
	}
	if sessions == nil {
		return errNotInitialized
	}

	token, expiresAt, err := sessions.Create(userID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secureCookies,
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
		MaxAge:   int(sessions.ttl.Seconds()),
	})
	return nil
}

func ClearSession(w http.ResponseWriter, r *http.Request) {
	if r != nil && sessions != nil {
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			sessions.Delete(cookie.Value)
		}
	}
	ClearSessionCookie(w)
}

func ClearSessionCookie(w http.ResponseWriter) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secureCookies,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

// UserFromRequest resolves the session cookie to the account behind it. It
// returns nil, nil for anonymous requests and for stale sessions, clearing the
// cookie in the latter case.
func UserFromRequest(w http.ResponseWriter, r *http.Request) (*authz.AuthUser, error) {
	if r == nil {
		return nil, nil
	}

	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}
	if sessions == nil || accounts == nil {
		return nil, errNotInitialized
	}

	userID, ok := sessions.Lookup(cookie.Value)
	if !ok {
		ClearSessionCookie(w)
		return nil, nil
	}

	user, err := accounts.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			sessions.Delete(cookie.Value)
			ClearSessionCookie(w)
			return nil, nil
		}
		return nil, err
	}

	return &authz.AuthUser{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsStaff:  user.IsStaff,
	}, nil
}
