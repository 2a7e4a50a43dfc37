package trigger

import (
	"fmt"

	"assistant-voice-control/wake_word"
)

// WakeWord triggers as soon as any wake word label scores above the
// detection threshold. Labels are checked in declaration order and the first
// match wins; later labels are not scored against the threshold.
type WakeWord struct {
	scorer    wake_word.Interface
	threshold float32
}

type WakeWordConfig struct {
	Scorer    wake_word.Interface
	Threshold float32
}

func NewWakeWord(cfg *WakeWordConfig) (*WakeWord, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Scorer == nil {
		return nil, fmt.Errorf("scorer is nil")
	}

	if cfg.Threshold <= 0 || cfg.Threshold >= 1 {
		return nil, fmt.Errorf("threshold must be in (0, 1), got %g", cfg.Threshold)
	}

	return &WakeWord{
		scorer:    cfg.Scorer,
		threshold: cfg.Threshold,
	}, nil
}

func (w *WakeWord) Observe(frame []float32, _ bool) (Decision, error) {
	scores, err := w.scorer.Predict(frame)
	if err != nil {
		return Decision{}, fmt.Errorf("scoring frame: %w", err)
	}

	for _, s := range scores {
		if s.Confidence > w.threshold {
			return Decision{Fire: true, Reason: s.Label}, nil
		}
	}

	return Decision{}, nil
}
