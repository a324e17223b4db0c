package api

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Davi2004/TarefasPlus/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the embedded page templates.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	t, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: t}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// page is what the HTML templates see. JSON clients only get Props.
type page struct {
	Session sessionResponse
	Viewer  domain.Identity
	Props   any
	Extra   any
}

func wantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

func (s *Server) respond(c echo.Context, status int, name string, props, extra any) error {
	if wantsJSON(c) {
		return c.JSON(status, props)
	}
	state := s.sessionState(c)
	viewer, _ := state.Identity()
	return c.Render(status, name, page{
		Session: newSessionResponse(state),
		Viewer:  viewer,
		Props:   props,
		Extra:   extra,
	})
}
