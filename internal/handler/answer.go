package handler

import "net/http"

type contentRequest struct {
	Content string `json:"content"`
}

// HandleListAnswers → GET /answers/question/{id} → {answers}
func (h *ForumHandler) HandleListAnswers(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	answers, err := h.forum.ListAnswers(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"answers": answers})
}

// HandleCreateAnswer → POST /answers/question/{id} {content} → {answer}
func (h *ForumHandler) HandleCreateAnswer(w http.ResponseWriter, r *http.Request) {
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
	var body contentRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	a, err := h.forum.CreateAnswer(r.Context(), userID, id, body.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"answer": a})
}

// HandleUpdateAnswer → PUT /answers/{id} {content} → {answer}
func (h *ForumHandler) HandleUpdateAnswer(w http.ResponseWriter, r *http.Request) {
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
	var body contentRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	a, err := h.forum.UpdateAnswer(r.Context(), userID, id, body.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"answer": a})
}

// HandleDeleteAnswer → DELETE /answers/{id}
func (h *ForumHandler) HandleDeleteAnswer(w http.ResponseWriter, r *http.Request) {
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

	if err := h.forum.DeleteAnswer(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Answer deleted")
}

// HandleVoteAnswer → POST /answers/{id}/vote {voteType}
func (h *ForumHandler) HandleVoteAnswer(w http.ResponseWriter, r *http.Request) {
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

	if err := h.forum.VoteAnswer(r.Context(), userID, id, body.VoteType); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Vote recorded")
}
