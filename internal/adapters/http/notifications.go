package httpadapter

import "net/http"

const defaultNotificationLimit = 50

func (rt *Router) listNotifications(w http.ResponseWriter, r *http.Request) {
	if rt.services.Inbox == nil {
		unavailable(w, "notifications")
		return
	}
	var recipient string
	limit := defaultNotificationLimit
	if err := bindQuery(r, map[string]any{"recipient": &recipient, "limit": &limit}); err != nil {
		writeError(w, r, err)
		return
	}
	items, err := rt.services.Inbox.ListNotifications(r.Context(), recipient, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipient": recipient, "notifications": items})
}

func (rt *Router) countUnreadNotifications(w http.ResponseWriter, r *http.Request) {
	if rt.services.Inbox == nil {
		unavailable(w, "notifications")
		return
	}
	var recipient string
	if err := bindQuery(r, map[string]any{"recipient": &recipient}); err != nil {
		writeError(w, r, err)
		return
	}
	count, err := rt.services.Inbox.CountUnread(r.Context(), recipient)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipient": recipient, "unread_count": count})
}

func (rt *Router) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	if rt.services.Inbox == nil {
		unavailable(w, "notifications")
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := rt.services.Inbox.MarkNotificationRead(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
