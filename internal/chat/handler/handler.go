package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/pendohq/pendo-assistant/internal/agent"
	"github.com/pendohq/pendo-assistant/internal/attachments"
	"github.com/pendohq/pendo-assistant/internal/chat"
	"github.com/pendohq/pendo-assistant/internal/logger/sl"
	"github.com/pendohq/pendo-assistant/internal/sse"
	"github.com/pendohq/pendo-assistant/internal/transport/httpapi"
	"github.com/pendohq/pendo-assistant/internal/ws"
)

const (
	serviceName    = "pendo-agent-api"
	serviceVersion = "1.0.0"

	// APIKeyHeader carries the user-supplied OpenAI key in demo mode. It is
	// used for the one request and never stored.
	APIKeyHeader = "X-OpenAI-API-Key"

	persistTimeout = 5 * time.Second
)

type Agent interface {
	Complete(ctx context.Context, apiKey string, turns []agent.Turn) (string, error)
	Stream(ctx context.Context, apiKey string, turns []agent.Turn, fn func(token string) error) (string, error)
}

type Repo interface {
	EnsureConversation(ctx context.Context, id, userID string, convType chat.ConversationType) error
	SaveMessage(ctx context.Context, msg chat.Message) error
	Messages(ctx context.Context, conversationID string) ([]chat.Message, error)
	Conversations(ctx context.Context, userID string) ([]chat.Conversation, error)
}

type Broadcaster interface {
	Broadcast(conversationID string, payload []byte)
}

type Handler struct {
	agent Agent
	files *attachments.Processor
	repo  Repo
	hub   Broadcaster
	log   *slog.Logger
}

func New(a Agent, files *attachments.Processor, repo Repo, hub Broadcaster, log *slog.Logger) *Handler {
	return &Handler{agent: a, files: files, repo: repo, hub: hub, log: log}
}

type tokenFrame struct {
	Token          string `json:"token"`
	SessionID      string `json:"session_id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

type errorFrame struct {
	Error     string `json:"error"`
	SessionID string `json:"session_id"`
}

// PendoAgent is POST /api/pendo-agent: the chat proxy. Responds with a JSON
// envelope or, when the request asks for it, a token stream.
func (h *Handler) PendoAgent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.chat.PendoAgent"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req chat.AgentRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("decode request error", sl.Err(err))
			httpapi.WriteError(w, r, chat.ErrContentOrFilesRequired)
			return
		}

		if req.UserID == "" {
			httpapi.WriteError(w, r, chat.ErrUserIDRequired)
			return
		}

		if strings.TrimSpace(req.ActualContent()) == "" && len(req.Files) == 0 {
			httpapi.WriteError(w, r, chat.ErrContentOrFilesRequired)
			return
		}

		sessionID := uuid.New().String()
		conversationID := req.ConversationID
		if conversationID == "" {
			conversationID = uuid.New().String()
		}

		log.Info("agent request",
			slog.String("user_id", req.UserID),
			slog.String("conversation_id", conversationID),
			slog.Int("files", len(req.Files)),
			slog.Bool("stream", req.Stream),
		)

		apiKey := r.Header.Get(APIKeyHeader)

		processed := h.files.Process(r.Context(), req.Files, req.UserID)

		h.recordMessage(conversationID, req.UserID, chat.Message{
			ID:             uuid.New().String(),
			ConversationID: conversationID,
			Role:           chat.RoleUser,
			Content:        req.ActualContent(),
		})

		turns := agent.BuildTurns(req.ActualContent(), processed)

		if req.Stream {
			h.streamResponse(w, r, log, req, turns, apiKey, sessionID, conversationID)
			return
		}

		text, err := h.agent.Complete(r.Context(), apiKey, turns)
		if err != nil {
			log.Error("agent completion failed", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.JSON(w, r, chat.AgentResponse{
			Response:       text,
			SessionID:      sessionID,
			ConversationID: conversationID,
			UserID:         req.UserID,
		})

		h.finishTurn(conversationID, req.UserID, sessionID, text, log)
	}
}

func (h *Handler) streamResponse(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
	req chat.AgentRequest,
	turns []agent.Turn,
	apiKey, sessionID, conversationID string,
) {
	sw, err := sse.NewWriter(w)
	if err != nil {
		log.Error("sse not supported", sl.Err(err))
		httpapi.WriteError(w, r, err)
		return
	}

	text, err := h.agent.Stream(r.Context(), apiKey, turns, func(token string) error {
		return sw.Data(tokenFrame{
			Token:          token,
			SessionID:      sessionID,
			ConversationID: conversationID,
			UserID:         req.UserID,
		})
	})

	if err != nil {
		log.Error("agent stream failed", sl.Err(err))
		_ = sw.Data(errorFrame{Error: err.Error(), SessionID: sessionID})
		_ = sw.End()
		return
	}

	if err := sw.End(); err != nil {
		log.Error("failed to end stream", sl.Err(err))
		return
	}

	h.finishTurn(conversationID, req.UserID, sessionID, text, log)
}

// finishTurn persists the assistant message and notifies subscribers. Runs
// off the request path, as the response is already on the wire.
func (h *Handler) finishTurn(conversationID, userID, sessionID, text string, log *slog.Logger) {
	msg := chat.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           chat.RoleAssistant,
		Content:        text,
	}

	h.recordMessage(conversationID, userID, msg)

	evt, err := ws.NewEvent(conversationID, ws.MessageNew, ws.MessageNewPayload{Message: msg})
	if err != nil {
		log.Error("failed to build ws event", sl.Err(err))
		return
	}
	h.hub.Broadcast(conversationID, evt)

	endEvt, err := ws.NewEvent(conversationID, ws.StreamEnd, ws.StreamEndPayload{SessionID: sessionID})
	if err != nil {
		log.Error("failed to build ws event", sl.Err(err))
		return
	}
	h.hub.Broadcast(conversationID, endEvt)
}

func (h *Handler) recordMessage(conversationID, userID string, msg chat.Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := h.repo.EnsureConversation(ctx, conversationID, userID, chat.TypeChat); err != nil {
			h.log.Warn("failed to ensure conversation", sl.Err(err))
			return
		}

		if err := h.repo.SaveMessage(ctx, msg); err != nil {
			h.log.Warn("failed to save message", sl.Err(err))
		}
	}()
}

// GetMessages is GET /api/conversations/{conversationId}/messages.
func (h *Handler) GetMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.chat.GetMessages"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		conversationID := chi.URLParam(r, "conversationId")
		if conversationID == "" {
			httpapi.WriteError(w, r, chat.ErrConversationNotFound)
			return
		}

		msgs, err := h.repo.Messages(r.Context(), conversationID)
		if err != nil {
			log.Error("failed to get messages", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.JSON(w, r, chat.GetMessagesResponse{Messages: msgs})
	}
}

// GetConversations is GET /api/conversations?user_id=.
func (h *Handler) GetConversations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.chat.GetConversations"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			httpapi.WriteError(w, r, chat.ErrUserIDRequired)
			return
		}

		convs, err := h.repo.Conversations(r.Context(), userID)
		if err != nil {
			log.Error("failed to get conversations", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.JSON(w, r, chat.GetConversationsResponse{Conversations: convs})
	}
}

// Health is GET /health.
func (h *Handler) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   serviceName,
			"version":   serviceVersion,
		})
	}
}
