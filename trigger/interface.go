package trigger

// Decision is the per-frame outcome of a trigger policy. Reason is the wake
// word label that matched, or "interval" for continuous mode; it ends up in
// the clip's sidecar metadata.
type Decision struct {
	Fire   bool
	Reason string
}

// Policy decides per frame whether to start a transcription cycle. Observe is
// called for every frame from the capture path, after the speech detector.
type Policy interface {
	Observe(frame []float32, speech bool) (Decision, error)
}
