package middleware

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/gob"
	"errors"
	"net/http"

	"github.com/ariebrainware/heart-risk/util"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	// SessionName is the cookie name of the application session.
	SessionName       = "heartrisk_session"
	sessionContextKey = "session"
	sessionUserKey    = "user"
)

// Flash categories understood by the templates.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
	FlashWarning = "warning"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

func createSessionKey(seed string) []byte {
	hasher := sha256.New()
	hasher.Write([]byte(seed))
	return hasher.Sum(nil)
}

// NewCookieStore builds a signed and encrypted cookie store from secret. An
// empty secret yields random keys, so sessions do not survive a restart.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	if secret == "" {
		util.Logger().Warn("SESSIONSECRET is not set, using an ephemeral session key")
		seed := make([]byte, 32)
		_, _ = rand.Read(seed)
		secret = string(seed)
	}
	store := sessions.NewCookieStore(createSessionKey(secret), createSessionKey(secret+"encryption"))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// SessionMiddleware loads the request session into the gin context. A cookie
// that fails to decode is replaced by a fresh session.
func SessionMiddleware(store sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := store.Get(c.Request, SessionName)
		if err != nil {
			util.Logger().Debug("discarding undecodable session cookie", zap.Error(err))
		}
		if sess == nil {
			util.AbortWithServerError(c, "session unavailable", errors.Join(errNoSession, err))
			return
		}
		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// GetSession returns the session loaded by SessionMiddleware, or nil.
func GetSession(c *gin.Context) *sessions.Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*sessions.Session)
	return sess
}

var errNoSession = errors.New("session middleware not installed")

// SaveSession writes the session cookie. It must run before the response body.
func SaveSession(c *gin.Context) error {
	sess := GetSession(c)
	if sess == nil {
		return errNoSession
	}
	return sess.Save(c.Request, c.Writer)
}

// SetCurrentUser marks the session as authenticated as username.
func SetCurrentUser(c *gin.Context, username string) error {
	sess := GetSession(c)
	if sess == nil {
		return errNoSession
	}
	sess.Values[sessionUserKey] = username
	return nil
}

// ClearCurrentUser removes the authenticated identity from the session.
func ClearCurrentUser(c *gin.Context) {
	if sess := GetSession(c); sess != nil {
		delete(sess.Values, sessionUserKey)
	}
}

// CurrentUser returns the identity stored in the session, if any.
func CurrentUser(c *gin.Context) (Identity, bool) {
	sess := GetSession(c)
	if sess == nil {
		return Identity{}, false
	}
	username, ok := sess.Values[sessionUserKey].(string)
	if !ok || username == "" {
		return Identity{}, false
	}
	return Identity{Username: username}, true
}

// AddFlash queues a message for the next rendered page.
func AddFlash(c *gin.Context, category, message string) {
	if sess := GetSession(c); sess != nil {
		sess.AddFlash(Flash{Category: category, Message: message})
	}
}

// Flashes drains queued messages. The caller must save the session afterwards.
func Flashes(c *gin.Context) []Flash {
	sess := GetSession(c)
	if sess == nil {
		return nil
	}
	var out []Flash
	for _, f := range sess.Flashes() {
		if flash, ok := f.(Flash); ok {
			out = append(out, flash)
		}
	}
	return out
}
