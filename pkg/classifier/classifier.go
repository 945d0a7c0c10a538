package classifier

import (
	"context"
	"errors"
)

// ErrUnavailable marks a classifier timeout or transport failure. The
// scorer recovers from it locally by degrading to lexical-only scoring;
// it is never surfaced to the end user.
var ErrUnavailable = errors.New("classifier unavailable")

// CategoryScore is one category confidence reported by the classifier.
type CategoryScore struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Classifier is the narrow capability boundary to the external safety
// model. Implementations must respect the context deadline and be safely
// callable when the backend is unreachable.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string) ([]CategoryScore, error)
}

// Noop always reports no signal. Used when no classifier is configured;
// lexical filtering still applies in full.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Classify(_ context.Context, _ string) ([]CategoryScore, error) {
	return nil, nil
}
