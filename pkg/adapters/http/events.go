package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

// SubscribeEvents handles GET /calls/{id}/events (SSE). The first message is
// the full snapshot as a diff against nothing; later messages carry only what
// changed between checkpoints. The stream ends after the session terminates.
//
// The optional watch parameter ("data,history,status,current") drops diffs
// that touch none of the listed fields.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, id CallID, params SubscribeEventsParams) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	// Subscribe before loading so no checkpoint falls between the two.
	updates := s.sb.Watch(r.Context(), id)
	last, err := s.sb.Snapshot(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, id, err)
		return
	}

	var watchList []string
	if params.Watch != nil && *params.Watch != "" {
		for _, field := range strings.Split(*params.Watch, ",") {
			watchList = append(watchList, strings.TrimSpace(field))
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	s.send(w, domain.Diff(nil, last))
	flusher.Flush()
	s.logger.Info("SSE: subscribed to session updates", "session_id", id)

	for !last.Terminated() {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "session_id", id)
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			diff := domain.Diff(last, snap)
			last = snap
			if diff == nil || !matches(diff, watchList) {
				continue
			}
			s.send(w, diff)
			flusher.Flush()
		}
	}
	fmt.Fprintf(w, "event: end\ndata: %s\n\n", last.Reason)
	flusher.Flush()
}

func (s *Server) send(w http.ResponseWriter, diff *domain.SnapshotDiff) {
	b, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("SSE: diff encode failed", "error", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", b)
}

// matches reports whether the diff touches any watched field (all when none are watched).
func matches(diff *domain.SnapshotDiff, watchList []string) bool {
	if len(watchList) == 0 {
		return true
	}
	for _, field := range watchList {
		switch field {
		case "data":
			if len(diff.Data) > 0 {
				return true
			}
		case "history":
			if diff.History != nil {
				return true
			}
		case "status":
			if diff.Status != nil || diff.Reason != nil {
				return true
			}
		case "current":
			if diff.Current != nil {
				return true
			}
		}
	}
	return false
}
