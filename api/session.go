package api

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/Davi2004/TarefasPlus/config"
	"github.com/Davi2004/TarefasPlus/domain"
)

const (
	sessionEmail = "email"
	sessionName  = "name"
	sessionImage = "image"
)

// Sessions keeps the signed-in identity in an encrypted cookie.
type Sessions struct {
	name  string
	store sessions.Store
}

// NewSessions creates a cookie backed session store.
func NewSessions(cfg config.SessionConfig) *Sessions {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{name: cfg.Name, store: store}
}

// Middleware makes the session available to handlers.
func (s *Sessions) Middleware() echo.MiddlewareFunc {
	return session.Middleware(s.store)
}

func (s *Sessions) identity(c echo.Context) (domain.Identity, bool) {
	sess, err := session.Get(s.name, c)
	if err != nil {
		return domain.Identity{}, false
	}
	email, _ := sess.Values[sessionEmail].(string)
	if email == "" {
		return domain.Identity{}, false
	}
	name, _ := sess.Values[sessionName].(string)
	image, _ := sess.Values[sessionImage].(string)
	return domain.Identity{Email: email, Name: name, Image: image}, true
}

func (s *Sessions) save(c echo.Context, id domain.Identity) error {
	sess, err := session.Get(s.name, c)
	if err != nil && sess == nil {
		return err
	}
	sess.Values[sessionEmail] = id.Email
	sess.Values[sessionName] = id.Name
	sess.Values[sessionImage] = id.Image
	return sess.Save(c.Request(), c.Response())
}

func (s *Sessions) clear(c echo.Context) error {
	sess, err := session.Get(s.name, c)
	if err != nil && sess == nil {
		return err
	}
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}
