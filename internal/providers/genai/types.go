package genai

import (
	"context"
	"encoding/json"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
)

// Request carries everything the model call needs for one generation.
type Request struct {
	Kind      domain.JobKind
	Prompt    string
	OwnerID   string
	RequestID string
}

// Progress is a coarse phase report emitted while a generation runs.
// Percent values are monotonically non-decreasing within one call.
type Progress struct {
	Message string
	Percent int
}

// Generator is the port the worker and the inline streaming handler call.
// Implementations must treat the call as opaque: prompt in, result or error
// out, at-least-once semantics tolerated by the caller.
type Generator interface {
	Generate(ctx context.Context, req Request, onProgress func(Progress)) (json.RawMessage, error)
}
