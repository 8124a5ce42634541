package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/auth"
	"github.com/sakif/qaforum/internal/model"
	"github.com/sakif/qaforum/internal/service"
)

// ForumHandler serves the question, answer and notification routes.
// Reads are public; every write needs a bearer token.
type ForumHandler struct {
	forum  *service.ForumService
	logger *slog.Logger
}

// NewForumHandler creates a ForumHandler.
func NewForumHandler(svc *service.ForumService, logger *slog.Logger) *ForumHandler {
	return &ForumHandler{forum: svc, logger: logger}
}

type voteRequest struct {
	VoteType model.VoteType `json:"voteType"`
}

// caller returns the authenticated user ID set by RequireAuth.
func caller(r *http.Request) (int64, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return 0, apperror.Unauthorized("Authentication required")
	}
	return id, nil
}

// HandleListQuestions → GET /questions → {questions}
func (h *ForumHandler) HandleListQuestions(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]any{"questions": h.forum.ListQuestions(r.Context())})
}

// HandleGetQuestion → GET /questions/{id} → {question}
func (h *ForumHandler) HandleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	q, err := h.forum.GetQuestion(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"question": q})
}

// HandleCreateQuestion → POST /questions {title, description, tags} → {question}
func (h *ForumHandler) HandleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in model.QuestionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	q, err := h.forum.CreateQuestion(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"question": q})
}

// HandleUpdateQuestion → PUT /questions/{id} → {question}
func (h *ForumHandler) HandleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var in model.QuestionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	q, err := h.forum.UpdateQuestion(r.Context(), userID, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"question": q})
}

// HandleDeleteQuestion → DELETE /questions/{id}
func (h *ForumHandler) HandleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.forum.DeleteQuestion(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Question deleted")
}

// HandleVoteQuestion → POST /questions/{id}/vote {voteType}
func (h *ForumHandler) HandleVoteQuestion(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var body voteRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	if err := h.forum.VoteQuestion(r.Context(), userID, id, body.VoteType); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Vote recorded")
}

// HandleAcceptAnswer → PUT /questions/{id}/accept/{aid}
func (h *ForumHandler) HandleAcceptAnswer(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	qid, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	aid, err := idParam(r, "aid")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.forum.AcceptAnswer(r.Context(), userID, qid, aid); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Answer accepted")
}
