package trigger

import (
	"fmt"
	"time"
)

// ReasonInterval marks clips triggered by continuous mode.
const ReasonInterval = "interval"

// Continuous fires on a timer/speech-amount basis instead of a trigger
// phrase. Two counters track the current run: speech frames accumulate while
// frames classify as speech, and a long enough silence run erases the
// accumulated evidence. Firing additionally requires the transcription
// interval to have elapsed, which keeps a talkative room from re-triggering
// on every frame.
type Continuous struct {
	speechFrames  int
	silenceFrames int

	speechNeeded int
	silenceLimit int

	interval          time.Duration
	lastTranscription time.Time

	now func() time.Time
}

type ContinuousConfig struct {
	SampleRate int
	FrameSize  int

	// MinSpeechDuration of accumulated speech frames required to fire.
	MinSpeechDuration time.Duration

	// SilenceDuration of consecutive non-speech frames that resets the
	// speech counter.
	SilenceDuration time.Duration

	// Interval is the minimum wall-clock spacing between transcriptions.
	Interval time.Duration

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

func NewContinuous(cfg *ContinuousConfig) (*Continuous, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.SampleRate <= 0 || cfg.FrameSize <= 0 {
		return nil, fmt.Errorf("sampleRate and frameSize must be positive")
	}

	if cfg.MinSpeechDuration <= 0 || cfg.SilenceDuration <= 0 || cfg.Interval <= 0 {
		return nil, fmt.Errorf("durations must be positive")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Continuous{
		speechNeeded: framesFor(cfg.MinSpeechDuration, cfg.SampleRate, cfg.FrameSize),
		silenceLimit: framesFor(cfg.SilenceDuration, cfg.SampleRate, cfg.FrameSize),
		interval:     cfg.Interval,
		now:          now,
	}, nil
}

func (c *Continuous) Observe(_ []float32, speech bool) (Decision, error) {
	if speech {
		c.speechFrames++
		c.silenceFrames = 0
	} else {
		c.silenceFrames++
		if c.silenceFrames >= c.silenceLimit {
			c.speechFrames = 0
		}
	}

	if c.shouldTranscribe() {
		return Decision{Fire: true, Reason: ReasonInterval}, nil
	}

	return Decision{}, nil
}

// shouldTranscribe fires when enough speech has accumulated and enough time
// has passed since the last transcription. Firing consumes the accumulated
// speech and stamps the clock.
func (c *Continuous) shouldTranscribe() bool {
	if c.speechFrames < c.speechNeeded {
		return false
	}

	now := c.now()
	if !c.lastTranscription.IsZero() && now.Sub(c.lastTranscription) < c.interval {
		return false
	}

	c.speechFrames = 0
	c.lastTranscription = now

	return true
}

// SpeechFrames reports the current accumulated speech run.
func (c *Continuous) SpeechFrames() int {
	return c.speechFrames
}

// SilenceFrames reports the current silence run.
func (c *Continuous) SilenceFrames() int {
	return c.silenceFrames
}

func framesFor(d time.Duration, sampleRate, frameSize int) int {
	frames := int(d.Seconds() * float64(sampleRate) / float64(frameSize))
	if frames < 1 {
		frames = 1
	}

	return frames
}
