package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/okanon/oracle/internal/history"
	"github.com/okanon/oracle/internal/rag"
)

// chatTitleLimit caps auto-generated chat titles.
const chatTitleLimit = 60

// timeLayout is the wire format for timestamps.
const timeLayout = time.RFC3339

// chatHandler serves question answering and conversation CRUD.
type chatHandler struct {
	assistant *rag.Service
	history   *history.Store
	logger    *slog.Logger
}

func newChatHandler(assistant *rag.Service, hist *history.Store, logger *slog.Logger) *chatHandler {
	return &chatHandler{assistant: assistant, history: hist, logger: logger}
}

func (h *chatHandler) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/chat", h.chat)
	mux.HandleFunc("GET /api/v1/chats", h.listChats)
	mux.HandleFunc("GET /api/v1/chats/{id}/messages", h.listMessages)
	mux.HandleFunc("DELETE /api/v1/chats/{id}", h.deleteChat)
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
	ChatID  string `json:"chat_id,omitempty"`
}

type sourceNode struct {
	FileName     string  `json:"file_name"`
	SectionLabel string  `json:"section_label"`
	TextSnippet  string  `json:"text_snippet"`
	Score        float64 `json:"score"`
}

type chatResponse struct {
	Response string       `json:"response"`
	Sources  []sourceNode `json:"sources"`
	ChatID   string       `json:"chat_id"`
}

// chat answers one message. With a chat_id the prior turns of that chat feed
// the generation as history; without one a new chat is created. Both turns
// of the exchange are persisted after a successful answer.
func (h *chatHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body", h.logger)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required", h.logger)
		return
	}

	ctx := r.Context()

	var (
		chat  *history.Chat
		prior []rag.Turn
		err   error
	)
	if req.ChatID != "" {
		chatID, parseErr := uuid.Parse(req.ChatID)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "chat_id is not a valid UUID", h.logger)
			return
		}
		chat, err = h.history.GetChat(ctx, chatID, req.UserID)
		if err == nil {
			prior, err = h.priorTurns(ctx, chatID, req.UserID)
		}
	} else {
		chat, err = h.history.CreateChat(ctx, req.UserID, titleFromMessage(req.Message))
	}
	if err != nil {
		h.writeHistoryError(w, err)
		return
	}

	answer, err := h.assistant.Query(ctx, req.UserID, req.Message, prior)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	// Persistence failure after a successful answer loses the transcript,
	// not the answer. Log and respond anyway.
	if err := h.persistExchange(ctx, chat.ID, req.UserID, req.Message, answer); err != nil {
		h.logger.Error("persisting chat exchange", "chat", chat.ID, "error", err)
	}

	sources := make([]sourceNode, len(answer.Sources))
	for i, s := range answer.Sources {
		sources[i] = sourceNode{
			FileName:     s.FileName,
			SectionLabel: s.SectionLabel,
			TextSnippet:  s.Snippet,
			Score:        s.Score,
		}
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Response: answer.Text,
		Sources:  sources,
		ChatID:   chat.ID.String(),
	}, h.logger)
}

func (h *chatHandler) priorTurns(ctx context.Context, chatID uuid.UUID, userID string) ([]rag.Turn, error) {
	msgs, err := h.history.GetMessages(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	turns := make([]rag.Turn, len(msgs))
	for i, m := range msgs {
		turns[i] = rag.Turn{Role: m.Role, Content: m.Content}
	}
	return turns, nil
}

func (h *chatHandler) persistExchange(ctx context.Context, chatID uuid.UUID, userID, message string, answer *rag.Answer) error {
	refs := make([]history.SourceRef, len(answer.Sources))
	for i, s := range answer.Sources {
		refs[i] = history.SourceRef{
			FileName:     s.FileName,
			SectionLabel: s.SectionLabel,
			Snippet:      s.Snippet,
			Score:        s.Score,
		}
	}
	return h.history.AppendMessages(ctx, chatID, userID, []history.Message{
		{Role: "user", Content: message},
		{Role: "assistant", Content: answer.Text, Sources: refs},
	})
}

type chatSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

func (h *chatHandler) listChats(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required", h.logger)
		return
	}

	chats, err := h.history.ListChats(r.Context(), userID)
	if err != nil {
		h.writeHistoryError(w, err)
		return
	}

	out := make([]chatSummary, len(chats))
	for i, c := range chats {
		out[i] = chatSummary{
			ID:        c.ID.String(),
			Title:     c.Title,
			CreatedAt: c.CreatedAt.Format(timeLayout),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"chats": out}, h.logger)
}

type messageView struct {
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Sources   []sourceNode `json:"sources,omitempty"`
	CreatedAt string       `json:"created_at"`
}

func (h *chatHandler) listMessages(w http.ResponseWriter, r *http.Request) {
	chatID, ok := h.pathChatID(w, r)
	if !ok {
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required", h.logger)
		return
	}

	msgs, err := h.history.GetMessages(r.Context(), chatID, userID)
	if err != nil {
		h.writeHistoryError(w, err)
		return
	}

	out := make([]messageView, len(msgs))
	for i, m := range msgs {
		view := messageView{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt.Format(timeLayout),
		}
		for _, s := range m.Sources {
			view.Sources = append(view.Sources, sourceNode{
				FileName:     s.FileName,
				SectionLabel: s.SectionLabel,
				TextSnippet:  s.Snippet,
				Score:        s.Score,
			})
		}
		out[i] = view
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out}, h.logger)
}

func (h *chatHandler) deleteChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := h.pathChatID(w, r)
	if !ok {
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required", h.logger)
		return
	}

	if err := h.history.DeleteChat(r.Context(), chatID, userID); err != nil {
		h.writeHistoryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *chatHandler) pathChatID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "chat id is not a valid UUID", h.logger)
		return uuid.Nil, false
	}
	return id, true
}

func (h *chatHandler) writeHistoryError(w http.ResponseWriter, err error) {
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "chat not found", h.logger)
		return
	}
	h.logger.Error("history operation failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal_error", "conversation storage failed", h.logger)
}

func (h *chatHandler) writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rag.ErrInvalidTenant):
		writeError(w, http.StatusBadRequest, "invalid_tenant", err.Error(), h.logger)
	case errors.Is(err, rag.ErrEmbedding):
		h.logger.Error("query failed", "error", err)
		writeError(w, http.StatusBadGateway, "embedding_failed", "embedding provider failed", h.logger)
	case errors.Is(err, rag.ErrGeneration):
		h.logger.Error("query failed", "error", err)
		writeError(w, http.StatusBadGateway, "generation_failed", "generation provider failed", h.logger)
	default:
		h.logger.Error("query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "query failed", h.logger)
	}
}

// titleFromMessage derives a chat title from the first message.
func titleFromMessage(message string) string {
	runes := []rune(message)
	if len(runes) <= chatTitleLimit {
		return message
	}
	return string(runes[:chatTitleLimit])
}
