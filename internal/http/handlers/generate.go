package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/middleware"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/providers/genai"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/service"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/worker"
)

type generateRequest struct {
	Kind   string `json:"kind"`
	Prompt string `json:"prompt"`
}

// GenerateStream is the inline synchronous path: the handler itself runs the
// generation and streams progress over the held-open response. Validation
// and the quota claim happen before the first streamed byte so rejections
// are ordinary JSON errors; once streaming starts, the contract is exactly
// one terminal event followed by the connection closing.
//
// The quota claimed here is not refunded if the model call fails; the
// attempt consumed provider resources either way.
func (a *App) GenerateStream(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "validation", "invalid payload")
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" || len(req.Prompt) > service.MaxPromptLen {
		a.domainError(w, domain.ErrInvalidPrompt)
		return
	}
	kind := domain.JobKind(req.Kind)
	if kind == "" {
		kind = domain.JobKindCode
	}
	if !domain.ValidKind(kind) {
		a.domainError(w, domain.ErrInvalidKind)
		return
	}

	if _, err := a.Meter.Claim(r.Context(), userID); err != nil {
		a.domainError(w, err)
		return
	}

	ew, ok := newEventWriter(w)
	if !ok {
		a.error(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	started := time.Now()
	terminalSent := false
	defer func() {
		// The terminal event must go out under all circumstances before
		// the connection closes, including panics unwinding through here.
		if !terminalSent {
			ew.write(worker.Event{Type: worker.EventError, Error: "generation aborted"})
		}
	}()

	ew.write(worker.Event{Type: worker.EventProgress, Message: "starting generation", Progress: 0})

	result, err := a.Generator.Generate(r.Context(), genai.Request{
		Kind:      kind,
		Prompt:    req.Prompt,
		OwnerID:   userID,
		RequestID: middleware.RequestIDFromContext(r.Context()),
	}, func(progress genai.Progress) {
		ew.write(worker.Event{Type: worker.EventProgress, Message: progress.Message, Progress: progress.Percent})
	})

	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("inline generation failed")
		ew.write(worker.Event{Type: worker.EventError, Error: err.Error()})
		terminalSent = true
		a.recordInlineEvent(r, userID, false, started)
		return
	}

	ew.write(worker.Event{Type: worker.EventComplete, Result: result, Progress: 100})
	terminalSent = true
	a.recordInlineEvent(r, userID, true, started)
}

func (a *App) recordInlineEvent(r *http.Request, userID string, success bool, started time.Time) {
	if a.Stats == nil {
		return
	}
	event := &domain.UsageEvent{
		OwnerID:   userID,
		EventType: domain.UsageEventInlineStream,
		Success:   success,
		LatencyMS: int(time.Since(started).Milliseconds()),
	}
	if err := a.Stats.Insert(r.Context(), event); err != nil {
		a.Logger.Warn().Err(err).Msg("record inline stream event failed")
	}
}
