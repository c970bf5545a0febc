package httpapi

import (
	"errors"
	"net/http"

	"github.com/pendohq/pendo-assistant/internal/chat"
	"github.com/pendohq/pendo-assistant/internal/resume"
)

func MapError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, chat.ErrContentOrFilesRequired):
		return http.StatusBadRequest, "content_or_files_required", err.Error()

	case errors.Is(err, chat.ErrUserIDRequired):
		return http.StatusBadRequest, "user_id_required", err.Error()

	case errors.Is(err, chat.ErrInvalidRole):
		return http.StatusBadRequest, "invalid_role", err.Error()

	case errors.Is(err, chat.ErrConversationNotFound):
		return http.StatusNotFound, "conversation_not_found", err.Error()

	case errors.Is(err, resume.ErrQueryRequired):
		return http.StatusBadRequest, "query_required", err.Error()

	case errors.Is(err, resume.ErrUserIDRequired):
		return http.StatusBadRequest, "user_id_required", err.Error()

	case errors.Is(err, resume.ErrEmptyContent):
		return http.StatusBadRequest, "empty_resume", err.Error()

	case errors.Is(err, resume.ErrNotStored):
		return http.StatusNotFound, "resume_not_stored", err.Error()
	}

	return http.StatusInternalServerError, "internal_error", "internal server error"
}
