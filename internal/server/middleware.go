package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/cicconee/freight-app/internal/app"
	"github.com/cicconee/freight-app/internal/session"
)

const sessionCookieKey = "tariff_session"

type contextKey string

const sessionContextKey contextKey = "session"

// SessionValidater is a middleware that is wrapped around paths that
// need an uploaded tariff. Any HTTP request that requires a session
// should be wrapped in the Validate func.
type SessionValidater struct {
	sessions *session.Store
	tokens   *session.Tokens
	logger   *log.Logger
	ttl      time.Duration
}

// Validate will resolve the session cookie to a live session. If the
// session exists, the cookie is renewed for another ttl and next will
// execute with the session stored in the request context. Use
// sessionFrom to read it.
func (v *SessionValidater) Validate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lw := NewLogWriter(v.logger, w, r)

		sess, err := resolveSession(r, v.tokens, v.sessions)
		if err != nil {
			v.logAbort(r, err, "SessionValidater.Validate")
			lw.WriteError(err)
			return
		}

		if err := setSessionCookie(w, v.tokens, sess.ID, v.ttl); err != nil {
			v.logAbort(r, err, "SessionValidater.Validate")
			lw.WriteError(err)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey, sess)))
	}
}

func (v *SessionValidater) logAbort(r *http.Request, err error, entry string) {
	v.logger.Printf("%s %s %s: aborting request: %v\n", r.Method, r.URL.Path, entry, err)
}

// resolveSession reads the session cookie of r.
func resolveSession(r *http.Request, tokens *session.Tokens, sessions *session.Store) (session.Session, error) {
	cookie, err := r.Cookie(sessionCookieKey)
	if err != nil {
		return session.Session{}, noSessionError(fmt.Errorf("getting %s cookie: %v", sessionCookieKey, err))
	}

	id, err := tokens.Parse(cookie.Value)
	if err != nil {
		return session.Session{}, noSessionError(fmt.Errorf("validating token: %w", err))
	}

	sess, err := sessions.Get(id)
	if err != nil {
		return session.Session{}, noSessionError(fmt.Errorf("session %q: %w", id, err))
	}

	return sess, nil
}

// setSessionCookie sets a cookie for session id that expires after ttl.
func setSessionCookie(w http.ResponseWriter, tokens *session.Tokens, id string, ttl time.Duration) error {
	token, err := tokens.Sign(id)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieKey,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

func noSessionError(err error) *app.ServerResponseError {
	return app.NewServerResponseError(err,
		"Bitte laden Sie eine Tarifdatei hoch, um fortzufahren",
		http.StatusUnauthorized)
}

// sessionFrom returns the session stored by SessionValidater.
func sessionFrom(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(session.Session)
	return sess, ok
}
