package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the pipeline's Prometheus metrics.
type Metrics struct {
	// Capture path
	FramesProcessed prometheus.Counter
	SpeechFrames    prometheus.Counter

	// Trigger policy
	Triggers        *prometheus.CounterVec
	TriggersDropped prometheus.Counter

	// Transcription
	Transcriptions        prometheus.Counter
	TranscriptionFailures prometheus.Counter

	// Gate and dispatch
	GateRejects        *prometheus.CounterVec
	CommandsDispatched prometheus.Counter
	DispatchFailures   prometheus.Counter
}

// New creates and registers all metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FramesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_frames_processed_total",
			Help: "Total number of audio frames run through the detector",
		}),
		SpeechFrames: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_speech_frames_total",
			Help: "Total number of frames classified as speech",
		}),
		Triggers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_triggers_total",
			Help: "Total number of transcription triggers by reason",
		}, []string{"reason"}),
		TriggersDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_triggers_dropped_total",
			Help: "Triggers dropped because a transcription was still running",
		}),
		Transcriptions: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_transcriptions_total",
			Help: "Total number of completed transcriptions",
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_transcription_failures_total",
			Help: "Total number of failed transcriptions",
		}),
		GateRejects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_gate_rejects_total",
			Help: "Transcriptions rejected by the text gate by reason",
		}, []string{"reason"}),
		CommandsDispatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_commands_dispatched_total",
			Help: "Total number of commands sent to the action service",
		}),
		DispatchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_dispatch_failures_total",
			Help: "Total number of failed action service calls",
		}),
	}
}
