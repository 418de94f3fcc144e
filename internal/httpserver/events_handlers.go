package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	custommw "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/httpserver/middleware"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/events"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/requestctx"
)

const heartbeatInterval = 25 * time.Second

type eventSubscriber interface {
	Subscribe(userID string) (<-chan events.Event, func())
}

type eventHandlers struct {
	broker    eventSubscriber
	heartbeat time.Duration
}

type redirectPayload struct {
	Location string `json:"location"`
	Reason   string `json:"reason,omitempty"`
}

// Stream pushes a redirect to the sign-in page once the session watching
// it ends, whether by sign-out in another tab, expiry, or another replica.
func (h *eventHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := custommw.SessionFromContext(ctx)
	if !ok || !sess.Authenticated() {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	sessionID, userID := sess.ID(), sess.User().UID

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	ch, cancel := h.broker.Subscribe(userID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		requestctx.Logger(ctx).Warn("event stream flush unsupported", zap.Error(err))
		return
	}

	interval := h.heartbeat
	if interval <= 0 {
		interval = heartbeatInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			if err := rc.Flush(); err != nil {
				return
			}
		case event, open := <-ch:
			if !open {
				return
			}
			if event.Type != events.TypeSessionEnded {
				continue
			}
			if event.SessionID != "" && event.SessionID != sessionID {
				continue
			}
			payload, _ := json.Marshal(redirectPayload{Location: loginPath, Reason: event.Reason})
			fmt.Fprintf(w, "event: redirect\ndata: %s\n\n", payload)
			_ = rc.Flush()
			return
		}
	}
}
