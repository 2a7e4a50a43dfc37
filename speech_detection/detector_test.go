package speech_detection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	testSampleRate = 16000
	testFrameSize  = 1024
	testThreshold  = 0.01
)

func sineFrame(freqHz, amplitude float64) []float32 {
	frame := make([]float32, testFrameSize)
	for i := range frame {
		frame[i] = float32(amplitude * math.Sin(2*math.Pi*freqHz*float64(i)/testSampleRate))
	}

	return frame
}

// voiceBurstFrame builds a short gaussian-windowed 300 Hz burst: loud enough,
// inside the speech band, no sustained periodicity and no abrupt envelope jump.
func voiceBurstFrame() []float32 {
	frame := make([]float32, testFrameSize)
	for i := range frame {
		d := float64(i-testFrameSize/2) / 100.0
		envelope := math.Exp(-d * d)
		frame[i] = float32(0.12 * envelope * math.Sin(2*math.Pi*300*float64(i)/testSampleRate))
	}

	return frame
}

func TestIsSpeech_VoiceBurstPasses(t *testing.T) {
	d := New(testSampleRate, testThreshold)

	ev := d.Analyze(voiceBurstFrame())

	assert.True(t, ev.LoudEnough, "rms %f should exceed threshold", ev.RMS)
	assert.True(t, ev.SpeechBand, "band energy %f should exceed threshold", ev.BandEnergy)
	assert.False(t, ev.PeriodicEcho)
	assert.False(t, ev.FeedbackSpike)
	assert.False(t, ev.FeedbackTone)
	assert.True(t, ev.IsSpeech())
}

func TestIsSpeech_QuietFrameRejectedRegardlessOfContent(t *testing.T) {
	d := New(testSampleRate, testThreshold)

	// Well inside the speech band but far below the noise floor.
	ev := d.Analyze(sineFrame(250, 0.005))

	assert.False(t, ev.LoudEnough)
	assert.False(t, ev.IsSpeech())
}

func TestIsSpeech_SilenceRejected(t *testing.T) {
	d := New(testSampleRate, testThreshold)

	assert.False(t, d.IsSpeech(make([]float32, testFrameSize)))
}

func TestIsSpeech_PureToneVetoedAsEcho(t *testing.T) {
	d := New(testSampleRate, testThreshold)

	// 250 Hz fills exactly bin 16, so the autocorrelation carries a clean
	// peak train at a constant 64 sample lag.
	ev := d.Analyze(sineFrame(250, 0.5))

	assert.True(t, ev.LoudEnough)
	assert.True(t, ev.SpeechBand)
	assert.True(t, ev.PeriodicEcho, "regular autocorrelation peaks must veto the frame")
	assert.False(t, ev.IsSpeech())
}

func TestIsSpeech_AmplitudeJumpVetoedAsFeedback(t *testing.T) {
	d := New(testSampleRate, testThreshold)

	frame := make([]float32, testFrameSize)
	for i := testFrameSize / 2; i < testFrameSize; i++ {
		frame[i] = 0.3
	}

	ev := d.Analyze(frame)

	assert.True(t, ev.FeedbackSpike)
	assert.False(t, ev.IsSpeech())
}

func TestIsSpeech_WhineBandPeakVetoedAsFeedback(t *testing.T) {
	d := New(testSampleRate, testThreshold)

	ev := d.Analyze(sineFrame(3000, 0.5))

	assert.True(t, ev.FeedbackTone)
	assert.False(t, ev.IsSpeech())
}

func TestAnalyze_Deterministic(t *testing.T) {
	d := New(testSampleRate, testThreshold)
	frame := voiceBurstFrame()

	first := d.Analyze(frame)
	second := d.Analyze(frame)

	assert.Equal(t, first, second)
}
