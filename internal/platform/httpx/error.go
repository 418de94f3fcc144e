package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/requestctx"
)

// Error is the JSON body written when a request fails outside of a page
// render: CSRF rejections, unconfirmed deletes, recovered panics.
type Error struct {
	Code      string `json:"error"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

func NewError(code, message string, status int) Error {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	return Error{Code: oneLine(code, 80), Message: oneLine(message, 512), Status: status}
}

// WriteError fills in the request and trace ids from ctx and writes e.
func WriteError(ctx context.Context, w http.ResponseWriter, e Error) {
	if e.Status < 400 {
		e.Status = http.StatusInternalServerError
	}
	if e.RequestID == "" {
		e.RequestID = oneLine(middleware.GetReqID(ctx), 80)
	}
	if e.TraceID == "" {
		e.TraceID = oneLine(requestctx.TraceID(ctx), 64)
	}
	WriteJSON(w, e.Status, e)
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Redirect sends a 303, or HX-Redirect for htmx requests since htmx follows
// 3xx responses transparently and would swap the target page into a fragment.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	if strings.EqualFold(r.Header.Get("HX-Request"), "true") {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// oneLine keeps header-derived values from breaking the log and JSON output.
func oneLine(v string, limit int) string {
	v = strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(v))
	if len(v) > limit {
		v = v[:limit]
	}
	return v
}
