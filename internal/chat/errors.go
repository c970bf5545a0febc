package chat

import (
	"errors"
)

var (
	ErrContentOrFilesRequired = errors.New("content or files is required")
	ErrUserIDRequired         = errors.New("user_id is required")
	ErrConversationNotFound   = errors.New("conversation is not exist")
	ErrInvalidRole            = errors.New("invalid message role")
)
