package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/sse"
	"github.com/go-chi/jwtauth/v5"
)

// PayrollEventsHandler streams payroll run lifecycle events of the caller's
// company over server-sent events.
type PayrollEventsHandler interface {
	Stream(w http.ResponseWriter, r *http.Request)
}

type payrollEventsHandlerImpl struct {
	hub       *sse.Hub
	keepalive time.Duration
}

func NewPayrollEventsHandler(hub *sse.Hub) PayrollEventsHandler {
	return &payrollEventsHandlerImpl{hub: hub, keepalive: 30 * time.Second}
}

func (h *payrollEventsHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	_, claims, _ := jwtauth.FromContext(r.Context())
	companyID, _ := claims["company_id"].(string)
	if companyID == "" {
		response.Forbidden(w, "Company ID is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(companyID)
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"company_id\":%q}\n\n", companyID)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
