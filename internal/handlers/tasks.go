package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/pliu/taskchat/internal/middleware"
	"github.com/pliu/taskchat/internal/tasks"
	"github.com/pliu/taskchat/internal/ws"
)

type TaskHandler struct {
	Service *tasks.Service
	Hub     *ws.Hub
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	list, err := h.Service.List(userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var in tasks.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.Service.Create(userID, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.publish(userID, ws.EventTaskCreated, task.ID)
	respondJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	task, err := h.Service.Get(userID, taskID(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var in tasks.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.Service.Update(userID, taskID(r), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.publish(userID, ws.EventTaskUpdated, task.ID)
	respondJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	task, err := h.Service.Toggle(userID, taskID(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.publish(userID, ws.EventTaskUpdated, task.ID)
	respondJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id := taskID(r)
	if err := h.Service.Delete(userID, id); err != nil {
		h.fail(w, err)
		return
	}
	h.publish(userID, ws.EventTaskDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

func taskID(r *http.Request) int {
	// The route constrains {id} to digits, so Atoi cannot fail here.
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func (h *TaskHandler) fail(w http.ResponseWriter, err error) {
	var ve *tasks.ValidationError
	switch {
	case errors.As(err, &ve):
		respondDetail(w, http.StatusBadRequest, []fieldError{{Field: ve.Field, Message: ve.Message}})
	case errors.Is(err, tasks.ErrNotFound):
		respondDetail(w, http.StatusNotFound, "Task not found")
	case errors.Is(err, tasks.ErrForbidden):
		respondDetail(w, http.StatusForbidden, "Not authorized")
	default:
		log.Printf("task operation: %v", err)
		respondDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

// publish is best-effort; the mutation already committed and a missing or
// full hub never fails the request.
func (h *TaskHandler) publish(userID int, eventType string, taskID int) {
	if h.Hub != nil {
		h.Hub.Publish(userID, eventType, taskID)
	}
}
