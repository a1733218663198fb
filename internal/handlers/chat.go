package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/pliu/taskchat/internal/agent"
	"github.com/pliu/taskchat/internal/middleware"
	"github.com/pliu/taskchat/internal/models"
	"github.com/pliu/taskchat/internal/store"
	"github.com/pliu/taskchat/internal/tasks"
)

const maxMessageLen = 2000

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Message  string          `json:"message"`
	Metadata *agent.Metadata `json:"metadata,omitempty"`
}

type ChatHandler struct {
	Store   store.Store
	Service *tasks.Service
	Agent   *agent.Agent
}

// Chat reconstructs the requester's conversation from the store, runs the
// agent with tools bound to the requester's identity, and persists exactly
// one user turn and one assistant turn. A failed run persists nothing.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		respondDetail(w, http.StatusUnprocessableEntity,
			[]fieldError{{Field: "message", Message: "message must not be empty"}})
		return
	}
	if utf8.RuneCountInString(message) > maxMessageLen {
		respondDetail(w, http.StatusUnprocessableEntity,
			[]fieldError{{Field: "message", Message: "message must be at most 2000 characters"}})
		return
	}

	history, err := h.Store.GetUserTurns(userID)
	if err != nil {
		log.Printf("load conversation: %v", err)
		respondDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	reg := agent.TaskTools(h.Service, userID)
	reply, meta, err := h.Agent.Run(r.Context(), reg, history, message)
	if err != nil {
		h.failProvider(w, err)
		return
	}

	err = h.Store.AppendTurns(userID,
		&models.ConversationTurn{Role: models.RoleUser, Content: message},
		&models.ConversationTurn{Role: models.RoleAssistant, Content: reply},
	)
	if err != nil {
		log.Printf("persist conversation: %v", err)
		respondDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, ChatResponse{Message: reply, Metadata: meta})
}

func (h *ChatHandler) failProvider(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, agent.ErrRateLimited):
		respondDetail(w, http.StatusTooManyRequests, "Model provider rate limited, try again later")
	case errors.Is(err, agent.ErrTimeout):
		respondDetail(w, http.StatusGatewayTimeout, "Model provider timed out")
	default:
		log.Printf("agent: %v", err)
		respondDetail(w, http.StatusBadGateway, "Model provider error")
	}
}
