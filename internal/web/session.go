package web

import (
	"crypto/subtle"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/addonsweep/internal/removal"
)

const (
	sessionCookie = "addonsweep_session"
	sessionTTL    = 12 * time.Hour
)

// session carries the anti-forgery token and pending flash notices for one
// browser.
type session struct {
	token   string
	flashes []removal.Notice
	seen    time.Time
}

// sessionStore keeps sessions in memory. Restarting the server invalidates
// every token, which only forces a page reload.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	now      func() time.Time
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session), now: time.Now}
}

// load returns the request's session, creating one (and setting the cookie)
// when the request has none or an unknown one.
func (s *sessionStore) load(w http.ResponseWriter, r *http.Request) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := s.sessions[c.Value]; ok && now.Sub(sess.seen) < sessionTTL {
			sess.seen = now
			return sess
		}
	}

	s.prune(now)
	id := uuid.NewString()
	sess := &session{token: uuid.NewString(), seen: now}
	s.sessions[id] = sess

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return sess
}

// validToken reports whether token matches the session's token.
func (s *sessionStore) validToken(sess *session, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sess.token), []byte(token)) == 1
}

func (s *sessionStore) flash(sess *session, notices ...removal.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.flashes = append(sess.flashes, notices...)
}

// popFlashes returns and clears pending notices.
func (s *sessionStore) popFlashes(sess *session) []removal.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := sess.flashes
	sess.flashes = nil
	return out
}

func (s *sessionStore) prune(now time.Time) {
	for id, sess := range s.sessions {
		if now.Sub(sess.seen) >= sessionTTL {
			delete(s.sessions, id)
		}
	}
}
