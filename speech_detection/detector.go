package speech_detection

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const (
	// Human speech band used for the spectral energy check.
	speechBandLowHz  = 100.0
	speechBandHighHz = 4000.0

	// Feedback whine typically sits in the upper half of the speech band.
	feedbackBandLowHz  = 2000.0
	feedbackBandHighHz = 4000.0

	// Autocorrelation peaks above this fraction of the maximum count as
	// echo candidates.
	echoPeakFraction = 0.75

	// A peak train whose spacing varies less than this coefficient of
	// variation is treated as periodic.
	echoSpacingCV = 0.1

	minEchoPeaks     = 3
	topSpectralPeaks = 3
)

// Evidence holds the per-frame signals the detector combines. All evidence
// must support real speech and no veto may fire for a frame to pass.
type Evidence struct {
	RMS        float64
	BandEnergy float64

	LoudEnough    bool
	SpeechBand    bool
	PeriodicEcho  bool
	FeedbackSpike bool
	FeedbackTone  bool
}

func (e Evidence) IsSpeech() bool {
	return e.LoudEnough && e.SpeechBand && !e.PeriodicEcho && !e.FeedbackSpike && !e.FeedbackTone
}

type Detector struct {
	sampleRate     int
	noiseThreshold float64
}

func New(sampleRate int, noiseThreshold float64) *Detector {
	return &Detector{
		sampleRate:     sampleRate,
		noiseThreshold: noiseThreshold,
	}
}

// IsSpeech classifies one fixed-size frame of normalized samples.
// Deterministic, no side effects.
func (d *Detector) IsSpeech(frame []float32) bool {
	return d.Analyze(frame).IsSpeech()
}

// Analyze computes the full evidence set for a frame. Exposed so callers can
// log or count which veto rejected a frame.
func (d *Detector) Analyze(frame []float32) Evidence {
	samples := make([]float64, len(frame))
	for i, s := range frame {
		samples[i] = float64(s)
	}

	spectrum := fft.FFTReal(samples)

	ev := Evidence{
		RMS:        rms(samples),
		BandEnergy: d.bandEnergy(spectrum, len(samples)),
	}

	ev.LoudEnough = ev.RMS > d.noiseThreshold
	ev.SpeechBand = ev.BandEnergy > d.noiseThreshold
	ev.PeriodicEcho = d.isPeriodicEcho(spectrum)
	ev.FeedbackSpike = d.hasAmplitudeSpike(samples)
	ev.FeedbackTone = d.hasFeedbackTone(spectrum, len(samples))

	return ev
}

func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += s * s
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// bandEnergy sums the positive-half magnitude spectrum restricted to the
// speech band, normalized by frame length.
func (d *Detector) bandEnergy(spectrum []complex128, frameLen int) float64 {
	var sum float64

	for k := 0; k <= frameLen/2; k++ {
		freq := binFrequency(k, frameLen, d.sampleRate)
		if freq >= speechBandLowHz && freq <= speechBandHighHz {
			sum += cmplx.Abs(spectrum[k])
		}
	}

	return sum / float64(frameLen)
}

// isPeriodicEcho looks for a regular train of strong autocorrelation peaks.
// Speaker bleed bouncing back into the microphone repeats at a near constant
// lag; human speech does not.
func (d *Detector) isPeriodicEcho(spectrum []complex128) bool {
	ac := autocorrelation(spectrum)

	maxAC := ac[0]
	for _, v := range ac {
		if v > maxAC {
			maxAC = v
		}
	}

	if maxAC <= 0 {
		return false
	}

	threshold := echoPeakFraction * maxAC

	var peaks []int
	for i := 1; i < len(ac)-1; i++ {
		if ac[i] > threshold && ac[i] > ac[i-1] && ac[i] > ac[i+1] {
			peaks = append(peaks, i)
		}
	}

	if len(peaks) < minEchoPeaks {
		return false
	}

	spacings := make([]float64, 0, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		spacings = append(spacings, float64(peaks[i]-peaks[i-1]))
	}

	mean, std := meanStd(spacings)
	if mean == 0 {
		return false
	}

	return std < echoSpacingCV*mean
}

// autocorrelation returns the non-negative lag half of the circular
// autocorrelation, computed from the power spectrum.
func autocorrelation(spectrum []complex128) []float64 {
	power := make([]complex128, len(spectrum))
	for i, v := range spectrum {
		m := cmplx.Abs(v)
		power[i] = complex(m*m, 0)
	}

	full := fft.IFFT(power)

	ac := make([]float64, len(full)/2+1)
	for i := range ac {
		ac[i] = real(full[i])
	}

	return ac
}

// hasAmplitudeSpike vetoes frames whose amplitude envelope jumps abruptly,
// the signature of feedback onset rather than voiced speech.
func (d *Detector) hasAmplitudeSpike(samples []float64) bool {
	limit := 2 * d.noiseThreshold

	for i := 1; i < len(samples); i++ {
		if math.Abs(samples[i])-math.Abs(samples[i-1]) > limit {
			return true
		}
	}

	return false
}

// hasFeedbackTone vetoes frames whose dominant spectral peaks fall in the
// feedback whine band.
func (d *Detector) hasFeedbackTone(spectrum []complex128, frameLen int) bool {
	half := frameLen / 2

	type peak struct {
		bin       int
		magnitude float64
	}

	top := make([]peak, 0, topSpectralPeaks)

	// Selection over the positive-frequency half, DC excluded.
	for k := 1; k <= half; k++ {
		m := cmplx.Abs(spectrum[k])

		pos := len(top)
		for pos > 0 && top[pos-1].magnitude < m {
			pos--
		}

		if pos < topSpectralPeaks {
			top = append(top, peak{})
			copy(top[pos+1:], top[pos:])
			top[pos] = peak{bin: k, magnitude: m}
			if len(top) > topSpectralPeaks {
				top = top[:topSpectralPeaks]
			}
		}
	}

	for _, p := range top {
		freq := binFrequency(p.bin, frameLen, d.sampleRate)
		if freq > feedbackBandLowHz && freq < feedbackBandHighHz {
			return true
		}
	}

	return false
}

func binFrequency(bin, frameLen, sampleRate int) float64 {
	return float64(bin) * float64(sampleRate) / float64(frameLen)
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}

	variance /= float64(len(values))

	return mean, math.Sqrt(variance)
}
