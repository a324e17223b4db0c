package api

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"github.com/Davi2004/TarefasPlus/domain"
)

// streamTasks pushes the caller's whole task list as a server-sent event
// every time it changes. The live query is released when the client goes
// away.
func (s *Server) streamTasks(c echo.Context) error {
	res := c.Response()
	flusher, ok := res.Writer.(http.Flusher)
	if !ok {
		return c.String(http.StatusInternalServerError, "stream unsupported")
	}
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := c.Request().Context()
	sub := s.hub.Subscribe(ctx, identityOf(c).Email)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-sub.Snapshots():
			if !ok {
				return nil
			}
			tasks := snap.Tasks
			if tasks == nil {
				tasks = []domain.Task{}
			}
			data, err := sonic.Marshal(tasks)
			if err != nil {
				s.logger.WithError(err).Error("encode snapshot")
				return nil
			}
			if _, err := res.Write([]byte("data: ")); err != nil {
				return nil
			}
			if _, err := res.Write(data); err != nil {
				return nil
			}
			if _, err := res.Write([]byte("\n\n")); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}
