package speech_to_text

import (
	"context"
	"time"
)

// Segment is one transcribed span of the clip. Confidence is the mean token
// probability reported by the model.
type Segment struct {
	Text       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}

type Interface interface {
	Process(ctx context.Context, wavPath string, language string) ([]Segment, error)
}
