package handler

import "net/http"

// ownerAndCaller resolves the {userId} path parameter and the caller.
func ownerAndCaller(r *http.Request) (userID, owner int64, err error) {
	if userID, err = caller(r); err != nil {
		return 0, 0, err
	}
	if owner, err = idParam(r, "userId"); err != nil {
		return 0, 0, err
	}
	return userID, owner, nil
}

// HandleListNotifications → GET /notifications/user/{userId} → {notifications}
func (h *ForumHandler) HandleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, owner, err := ownerAndCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ns, err := h.forum.Notifications(r.Context(), userID, owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"notifications": ns})
}

// HandleMarkRead → PUT /notifications/{id}/read
func (h *ForumHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
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

	if err := h.forum.MarkNotificationRead(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Notification marked as read")
}

// HandleMarkAllRead → PUT /notifications/user/{userId}/read-all
func (h *ForumHandler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, owner, err := ownerAndCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.forum.MarkAllNotificationsRead(r.Context(), userID, owner); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "All notifications marked as read")
}

// HandleUnreadCount → GET /notifications/user/{userId}/unread-count → {count}
func (h *ForumHandler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, owner, err := ownerAndCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}

	n, err := h.forum.UnreadCount(r.Context(), userID, owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"count": n})
}
