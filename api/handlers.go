package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Davi2004/TarefasPlus/domain"
	"github.com/Davi2004/TarefasPlus/share"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	store     Storage
	auth      Authenticator
	hub       Subscriber
	deduper   Deduper
	sessions  *Sessions
	renderer  echo.Renderer
	logger    *log.Logger
	dates     domain.DateFormat
	publicURL string
}

// Options configures a Server.
type Options struct {
	Store     Storage
	Auth      Authenticator
	Hub       Subscriber
	Deduper   Deduper
	Sessions  *Sessions
	Renderer  echo.Renderer
	Logger    *log.Logger
	Dates     domain.DateFormat
	PublicURL string
}

// NewServer creates a Server.
func NewServer(o Options) *Server {
	if o.Logger == nil {
		o.Logger = log.StandardLogger()
	}
	return &Server{
		store:     o.Store,
		auth:      o.Auth,
		hub:       o.Hub,
		deduper:   o.Deduper,
		sessions:  o.Sessions,
		renderer:  o.Renderer,
		logger:    o.Logger,
		dates:     o.Dates,
		publicURL: o.PublicURL,
	}
}

// Register wires up all routes on the provided Echo instance.
func (s *Server) Register(e *echo.Echo) {
	e.JSONSerializer = sonicSerializer{}
	if s.renderer != nil {
		e.Renderer = s.renderer
	}
	e.Use(metricsMiddleware(s.logger))
	e.Use(compression()...)
	e.Use(s.sessions.Middleware())

	e.GET("/", s.home)
	e.GET("/healthz", healthz)
	e.POST("/auth/session", s.signIn)
	e.POST("/auth/signout", s.signOut)
	e.GET("/api/session", s.getSession)

	e.GET("/dashboard", s.dashboard, s.requirePage)
	e.GET(streamPath, s.streamTasks, s.requirePage)
	e.GET("/task/:id", s.taskDetail)

	e.POST("/api/tasks", s.createTask, s.requireAPI)
	e.DELETE("/api/tasks/:id", s.deleteTask, s.requireAPI)
	e.GET("/api/tasks/:id/share", s.shareTask)
	e.POST("/api/tasks/:id/comments", s.createComment, s.requireAPI)
	e.DELETE("/api/tasks/:id/comments/:commentId", s.deleteComment, s.requireAPI)
}

func healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

type sessionResponse struct {
	Status string           `json:"status"`
	User   *domain.Identity `json:"user,omitempty"`
}

func newSessionResponse(state domain.SessionState) sessionResponse {
	resp := sessionResponse{Status: state.Status.String()}
	if id, ok := state.Identity(); ok {
		resp.User = &id
	}
	return resp
}

type homeProps struct {
	Session sessionResponse `json:"session"`
}

func (s *Server) home(c echo.Context) error {
	props := homeProps{Session: newSessionResponse(s.sessionState(c))}
	return s.respond(c, http.StatusOK, "home.html", props, nil)
}

func (s *Server) getSession(c echo.Context) error {
	return c.JSON(http.StatusOK, newSessionResponse(s.sessionState(c)))
}

type signInRequest struct {
	Token string `json:"token" form:"token"`
}

// signIn exchanges an ID token for a cookie session.
func (s *Server) signIn(c echo.Context) error {
	var (
		id  domain.Identity
		err error
	)
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		id, err = s.auth.IdentityFromAuthHeader(h)
	} else {
		var req signInRequest
		if bindErr := c.Bind(&req); bindErr != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		id, err = s.auth.IdentityFromToken(req.Token)
	}
	if err != nil {
		metricsOf(c).SetErrorStage("auth")
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	}
	if err := s.sessions.save(c, id); err != nil {
		return s.internalError(c, "session", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) signOut(c echo.Context) error {
	if err := s.sessions.clear(c); err != nil {
		s.logger.WithError(err).Warn("unable to clear session")
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

type userProps struct {
	Email string `json:"email"`
}

type dashboardProps struct {
	User userProps `json:"user"`
}

type dashboardExtra struct {
	Created    string
	Deleted    string
	Copied     string
	Strategies []string
}

func (s *Server) dashboard(c echo.Context) error {
	id := identityOf(c)
	props := dashboardProps{User: userProps{Email: id.Email}}
	extra := dashboardExtra{
		Created: domain.NoticeTaskCreated,
		Deleted: domain.NoticeTaskDeleted,
		Copied:  share.CopiedNotice,
	}
	for _, st := range share.Strategies() {
		extra.Strategies = append(extra.Strategies, st.String())
	}
	return s.respond(c, http.StatusOK, "dashboard.html", props, extra)
}

type createTaskRequest struct {
	Text   string `json:"text" form:"text"`
	Public bool   `json:"public" form:"public"`
}

type createdResponse struct {
	ID string `json:"id"`
}

func (s *Server) createTask(c echo.Context) error {
	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	if err := domain.ValidateText(req.Text); err != nil {
		metricsOf(c).SetErrorStage("validate")
		return c.JSON(http.StatusUnprocessableEntity, warningResponse{Warning: domain.NoticeEmptyTask})
	}
	owner := identityOf(c).Email
	release, ok, err := s.claimSubmission(c, owner)
	if !ok {
		return err
	}
	id, err := s.store.CreateTask(c.Request().Context(), owner, domain.NewTask{Text: req.Text, Public: req.Public})
	if err != nil {
		release()
		return s.internalError(c, "storage", err)
	}
	return c.JSON(http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) deleteTask(c echo.Context) error {
	ctx := c.Request().Context()
	taskID := c.Param("id")
	task, found, err := s.fetchTask(c, taskID)
	if err != nil {
		return s.internalError(c, "storage", err)
	}
	if !found || task.Owner != identityOf(c).Email {
		return c.JSON(http.StatusNotFound, errorResponse{Error: domain.ErrNotFound.Error()})
	}
	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return s.internalError(c, "storage", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type taskProps struct {
	Item        domain.TaskView  `json:"item"`
	AllComments []domain.Comment `json:"allComments"`
}

type taskExtra struct {
	URL    string
	Shares []share.Action
	Copied string
}

// taskDetail only shows public tasks. Private or missing ones send the
// visitor back to the dashboard, owners included.
func (s *Server) taskDetail(c echo.Context) error {
	ctx := c.Request().Context()
	task, visible, err := s.visibleTask(c, c.Param("id"))
	if err != nil {
		return s.internalError(c, "storage", err)
	}
	if !visible {
		return c.Redirect(http.StatusTemporaryRedirect, "/dashboard")
	}

	start := time.Now()
	comments, err := s.store.CommentsByTask(ctx, task.ID)
	metricsOf(c).ObserveFetch(time.Since(start))
	if err != nil {
		return s.internalError(c, "storage", err)
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	metricsOf(c).SetItemsReturned(len(comments))

	props := taskProps{Item: task.View(s.dates), AllComments: comments}
	st := share.Task{ID: task.ID, Text: task.Text}
	extra := taskExtra{
		URL:    share.CanonicalURL(s.publicURL, task.ID),
		Shares: share.All(st, s.publicURL, share.Capabilities{}),
		Copied: share.CopiedNotice,
	}
	return s.respond(c, http.StatusOK, "task.html", props, extra)
}

// shareTask composes the action for one share strategy of a public task.
func (s *Server) shareTask(c echo.Context) error {
	strategy, err := share.ParseStrategy(c.QueryParam("strategy"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	task, visible, err := s.visibleTask(c, c.Param("id"))
	if err != nil {
		return s.internalError(c, "storage", err)
	}
	if !visible {
		return c.JSON(http.StatusNotFound, errorResponse{Error: domain.ErrNotFound.Error()})
	}
	caps := share.Capabilities{NativeShare: c.QueryParam("native") == "true"}
	action, err := share.Compose(strategy, share.Task{ID: task.ID, Text: task.Text}, s.publicURL, caps)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, action)
}

func (s *Server) visibleTask(c echo.Context, id string) (domain.Task, bool, error) {
	task, found, err := s.fetchTask(c, id)
	if err != nil || !found || !task.Public {
		return domain.Task{}, false, err
	}
	return task, true, nil
}

func (s *Server) fetchTask(c echo.Context, id string) (domain.Task, bool, error) {
	start := time.Now()
	task, found, err := s.store.GetTask(c.Request().Context(), id)
	metricsOf(c).ObserveFetch(time.Since(start))
	return task, found, err
}

func (s *Server) internalError(c echo.Context, stage string, err error) error {
	metricsOf(c).SetErrorStage(stage)
	s.logger.WithError(err).WithField("route", c.Path()).Error("request failed")
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
