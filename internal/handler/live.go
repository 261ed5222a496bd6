package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/notemap/internal/domain"
	"github.com/msomdec/notemap/internal/query"
	"github.com/msomdec/notemap/internal/reconcile"
	"github.com/starfederation/datastar-go/datastar"
)

// LiveHandler streams the authenticated user's note list over SSE.
// Each push carries the full filtered view rebuilt from the user's
// session store, so a dropped signal costs nothing: the next change
// re-sends the whole state.
type LiveHandler struct {
	sessions *reconcile.Manager
}

// NewLiveHandler creates a new LiveHandler.
func NewLiveHandler(sessions *reconcile.Manager) *LiveHandler {
	return &LiveHandler{sessions: sessions}
}

type liveSignals struct {
	Notes      []noteDTO     `json:"notes"`
	Categories []categoryDTO `json:"categories"`
}

func (h *LiveHandler) handleNotesLive(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())
	session := h.sessions.Ensure(userID)
	st := session.Store()

	filter := query.Filter{
		SearchText: r.URL.Query().Get("q"),
		CategoryID: r.URL.Query().Get("category"),
	}
	if p := r.URL.Query().Get("priority"); p != "" {
		filter.Priority = domain.ParsePriority(p)
	}

	sse := datastar.NewSSE(w, r)
	watch, unwatch := st.Subscribe()
	defer unwatch()

	for {
		categories := query.SortCategories(st.Categories())
		signals := liveSignals{
			Notes:      toNoteDTOs(query.Apply(st.Notes(), filter), categories),
			Categories: make([]categoryDTO, 0, len(categories)),
		}
		for _, c := range categories {
			signals.Categories = append(signals.Categories, toCategoryDTO(c))
		}
		if err := sse.MarshalAndPatchSignals(signals); err != nil {
			slog.Debug("live stream closed", "user", userID, "error", err)
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-session.Done():
			// The backing feed failed; tell the client to reconnect.
			writeLiveFailure(sse, session.Err())
			return
		case <-watch:
		}
	}
}

func writeLiveFailure(sse *datastar.ServerSentEventGenerator, err error) {
	if err == nil {
		return
	}
	_ = sse.MarshalAndPatchSignals(map[string]string{"liveError": "Live updates interrupted. Reconnecting..."})
}
