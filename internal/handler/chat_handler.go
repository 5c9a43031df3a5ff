package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"portfolio-api/internal/models"
	"portfolio-api/internal/service"
	"portfolio-api/internal/util"
)

// ChatHandler serves the portfolio chat widget endpoint.
type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat handles POST /api/v1/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	ip := ClientIP(r)

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request format")
		return
	}

	resp, err := h.chatService.Chat(r.Context(), ip, r.UserAgent(), req.Messages)
	if err != nil {
		respondWithError(w, h.statusCode(err), err, "Chat request failed")
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(resp, ""))
	util.Debug("Chat completed",
		util.String("ip", ip),
		util.Int("messages", len(req.Messages)),
		util.Duration("duration", time.Since(startTime)),
	)
}

func (h *ChatHandler) statusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrPayloadTooLong):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
