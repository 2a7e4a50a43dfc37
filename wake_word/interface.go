package wake_word

// Score is one wake word label with the model's confidence for the current
// frame. Scores are returned in label declaration order; callers rely on that
// order for first-match-wins trigger semantics.
type Score struct {
	Label      string
	Confidence float32
}

type Interface interface {
	Predict(frame []float32) ([]Score, error)
	Labels() []string
	Close() error
}
