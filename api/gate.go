package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Davi2004/TarefasPlus/domain"
)

const identityKey = "identity"

type errorResponse struct {
	Error string `json:"error"`
}

type warningResponse struct {
	Warning string `json:"warning"`
}

// resolveIdentity looks at the session cookie first and falls back to a
// bearer token. The result is stored on the context for later handlers.
func (s *Server) resolveIdentity(c echo.Context) (domain.Identity, bool) {
	if v, ok := c.Get(identityKey).(domain.Identity); ok {
		return v, true
	}
	if id, ok := s.sessions.identity(c); ok {
		c.Set(identityKey, id)
		return id, true
	}
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return domain.Identity{}, false
	}
	id, err := s.auth.IdentityFromAuthHeader(h)
	if err != nil {
		s.logger.WithError(err).Debug("bearer token rejected")
		return domain.Identity{}, false
	}
	c.Set(identityKey, id)
	return id, true
}

func (s *Server) sessionState(c echo.Context) domain.SessionState {
	if id, ok := s.resolveIdentity(c); ok {
		return domain.SignedIn(id)
	}
	return domain.SignedOut()
}

// requirePage redirects anonymous visitors to the root page before any data
// is loaded.
func (s *Server) requirePage(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := s.resolveIdentity(c); !ok {
			return c.Redirect(http.StatusTemporaryRedirect, "/")
		}
		return next(c)
	}
}

// requireAPI rejects anonymous API calls.
func (s *Server) requireAPI(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := s.resolveIdentity(c); !ok {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthenticated"})
		}
		return next(c)
	}
}

func identityOf(c echo.Context) domain.Identity {
	id, _ := c.Get(identityKey).(domain.Identity)
	return id
}
