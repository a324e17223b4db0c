package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Davi2004/TarefasPlus/domain"
)

type createCommentRequest struct {
	Text string `json:"text" form:"text"`
}

// createComment stores a comment on a public task. Only identities with a
// display name may comment.
func (s *Server) createComment(c echo.Context) error {
	id := identityOf(c)
	if !id.Complete() {
		return c.JSON(http.StatusForbidden, errorResponse{Error: "incomplete identity"})
	}
	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	if err := domain.ValidateText(req.Text); err != nil {
		metricsOf(c).SetErrorStage("validate")
		return c.JSON(http.StatusUnprocessableEntity, warningResponse{Warning: domain.NoticeEmptyComment})
	}

	task, visible, err := s.visibleTask(c, c.Param("id"))
	if err != nil {
		return s.internalError(c, "storage", err)
	}
	if !visible {
		return c.JSON(http.StatusNotFound, errorResponse{Error: domain.ErrNotFound.Error()})
	}

	release, ok, err := s.claimSubmission(c, id.Email)
	if !ok {
		return err
	}
	stored, err := s.store.CreateComment(c.Request().Context(), domain.CommentBy(id, task.ID, req.Text))
	if err != nil {
		release()
		return s.internalError(c, "storage", err)
	}
	return c.JSON(http.StatusCreated, stored)
}

func (s *Server) deleteComment(c echo.Context) error {
	ctx := c.Request().Context()
	commentID := c.Param("commentId")
	comment, found, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return s.internalError(c, "storage", err)
	}
	if !found || comment.TaskID != c.Param("id") {
		return c.JSON(http.StatusNotFound, errorResponse{Error: domain.ErrNotFound.Error()})
	}
	if !comment.WrittenBy(identityOf(c)) {
		return c.JSON(http.StatusForbidden, errorResponse{Error: domain.ErrForbidden.Error()})
	}
	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return s.internalError(c, "storage", err)
	}
	return c.NoContent(http.StatusNoContent)
}
