package listener

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gordonklaus/portaudio"

	"assistant-voice-control/clients/home_assistant"
	"assistant-voice-control/clip_store"
	"assistant-voice-control/command_mapper"
	"assistant-voice-control/metrics"
	"assistant-voice-control/ring_buffer"
	"assistant-voice-control/speech_detection"
	"assistant-voice-control/speech_to_text"
	"assistant-voice-control/transcription_gate"
	"assistant-voice-control/trigger"
)

// voiceImpl wires the per-frame path (detector, rolling buffer, trigger
// policy) to the slow transcription path. All per-frame work runs
// synchronously on the capture loop; transcription runs on one worker
// goroutine fed by a single-slot channel so capture is never blocked by the
// model. A trigger arriving while a transcription is still running is
// dropped and counted.
type voiceImpl struct {
	detector      *speech_detection.Detector
	buffer        *ring_buffer.Buffer
	policy        trigger.Policy
	sttEngine     speech_to_text.Interface
	clipStore     *clip_store.Store
	homeAssistant home_assistant.HomeAssistantAPI
	metrics       *metrics.Metrics
	logger        *slog.Logger

	sampleRate int
	frameSize  int
	language   string
	asrTimeout time.Duration

	audioRunning bool
	triggers     chan triggerEvent
}

type triggerEvent struct {
	samples []float32
	reason  string
}

type Config struct {
	Detector  *speech_detection.Detector
	Buffer    *ring_buffer.Buffer
	Policy    trigger.Policy
	STTEngine speech_to_text.Interface
	ClipStore *clip_store.Store

	// HomeAssistant may be nil; recognized commands are then logged but not
	// dispatched.
	HomeAssistant home_assistant.HomeAssistantAPI

	Metrics *metrics.Metrics
	Logger  *slog.Logger

	SampleRate int
	FrameSize  int
	Language   string
	ASRTimeout time.Duration
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Detector == nil {
		return nil, fmt.Errorf("detector is nil")
	}

	if cfg.Buffer == nil {
		return nil, fmt.Errorf("buffer is nil")
	}

	if cfg.Policy == nil {
		return nil, fmt.Errorf("policy is nil")
	}

	if cfg.STTEngine == nil {
		return nil, fmt.Errorf("sttEngine is nil")
	}

	if cfg.ClipStore == nil {
		return nil, fmt.Errorf("clipStore is nil")
	}

	if cfg.Metrics == nil {
		return nil, fmt.Errorf("metrics is nil")
	}

	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	if cfg.SampleRate <= 0 || cfg.FrameSize <= 0 {
		return nil, fmt.Errorf("sampleRate and frameSize must be positive")
	}

	if cfg.ASRTimeout <= 0 {
		return nil, fmt.Errorf("asrTimeout must be positive")
	}

	return &voiceImpl{
		detector:      cfg.Detector,
		buffer:        cfg.Buffer,
		policy:        cfg.Policy,
		sttEngine:     cfg.STTEngine,
		clipStore:     cfg.ClipStore,
		homeAssistant: cfg.HomeAssistant,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
		sampleRate:    cfg.SampleRate,
		frameSize:     cfg.FrameSize,
		language:      cfg.Language,
		asrTimeout:    cfg.ASRTimeout,
		triggers:      make(chan triggerEvent, 1),
	}, nil
}

func (v *voiceImpl) Listen(ctx context.Context) error {
	if err := v.initAudio(); err != nil {
		return err
	}

	defer v.freeAudio()

	in := make([]int16, v.frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(v.sampleRate), len(in), in)
	if err != nil {
		return fmt.Errorf("opening capture stream (no usable input device?): %w", err)
	}

	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting capture stream: %w", err)
	}

	defer func() {
		if err := stream.Stop(); err != nil {
			v.logger.Error("stopping capture stream", slog.Any("error", err))
		}
	}()

	go v.transcribeLoop(ctx)

	v.logger.Info("listening",
		slog.Int("sample_rate", v.sampleRate),
		slog.Int("frame_size", v.frameSize),
	)

	frame := make([]float32, v.frameSize)

	for {
		select {
		case <-ctx.Done():
			v.logger.Info("capture stopped")

			return nil
		default:
		}

		if err := stream.Read(); err != nil {
			return fmt.Errorf("reading capture stream: %w", err)
		}

		for i, sample := range in {
			frame[i] = float32(sample) / 32768
		}

		v.processFrame(frame)
	}
}

func (v *voiceImpl) initAudio() error {
	if !v.audioRunning {
		err := portaudio.Initialize()
		if err != nil {
			return fmt.Errorf("initializing audio: %w", err)
		}

		v.audioRunning = true
	}

	return nil
}

func (v *voiceImpl) freeAudio() {
	if v.audioRunning {
		err := portaudio.Terminate()
		if err != nil {
			v.logger.Error("error while freeing audio", slog.Any("error", err))
		}

		v.audioRunning = false
	}
}

// processFrame is the per-frame critical path and must complete well within
// one frame period. Every frame goes through the detector and the rolling
// buffer unconditionally; the policy decides whether to hand a snapshot to
// the transcription worker.
func (v *voiceImpl) processFrame(frame []float32) {
	v.metrics.FramesProcessed.Inc()

	speech := v.detector.IsSpeech(frame)
	if speech {
		v.metrics.SpeechFrames.Inc()
	}

	v.buffer.Append(frame)

	decision, err := v.policy.Observe(frame, speech)
	if err != nil {
		v.logger.Error("trigger policy", slog.Any("error", err))

		return
	}

	if !decision.Fire {
		return
	}

	v.metrics.Triggers.WithLabelValues(decision.Reason).Inc()
	v.logger.Info("transcription triggered", slog.String("reason", decision.Reason))

	select {
	case v.triggers <- triggerEvent{samples: v.buffer.Snapshot(), reason: decision.Reason}:
	default:
		v.metrics.TriggersDropped.Inc()
		v.logger.Warn("transcription still running, trigger dropped")
	}
}

func (v *voiceImpl) transcribeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-v.triggers:
			v.handleTrigger(ctx, event)
		}
	}
}

// handleTrigger runs the slow half of a trigger event: persist the snapshot,
// transcribe it, then gate, map and dispatch. Every error here is contained;
// the capture loop keeps running.
func (v *voiceImpl) handleTrigger(ctx context.Context, event triggerEvent) {
	clip, err := v.clipStore.Save(event.samples, event.reason)
	if err != nil {
		v.logger.Error("saving clip", slog.Any("error", err))

		return
	}

	v.logger.Info("saved audio segment", slog.String("path", clip.Path))

	asrCtx, cancel := context.WithTimeout(ctx, v.asrTimeout)
	defer cancel()

	segments, err := v.sttEngine.Process(asrCtx, clip.Path, v.language)
	if err != nil {
		v.metrics.TranscriptionFailures.Inc()

		clip.Meta.Error = err.Error()
		v.writeSidecar(clip)

		v.logger.Error("transcription failed", slog.Any("error", err))

		return
	}

	v.metrics.Transcriptions.Inc()

	for _, segment := range segments {
		v.logger.Debug("segment",
			slog.Duration("start", segment.Start),
			slog.Duration("end", segment.End),
			slog.Float64("confidence", segment.Confidence),
			slog.String("text", segment.Text),
		)
	}

	text := joinSegments(segments)
	clip.Meta.Transcription = text
	v.writeSidecar(clip)

	filtered, err := transcription_gate.Filter(text)
	if err != nil {
		v.metrics.GateRejects.WithLabelValues(err.Error()).Inc()
		v.logger.Info("transcription rejected",
			slog.String("reason", err.Error()),
			slog.String("text", text),
		)

		return
	}

	intent, ok := command_mapper.Map(filtered)
	if !ok {
		v.logger.Info("no command recognized", slog.String("text", filtered))

		return
	}

	v.dispatch(ctx, intent)
}

func (v *voiceImpl) dispatch(ctx context.Context, intent command_mapper.Intent) {
	if v.homeAssistant == nil {
		v.logger.Warn("command recognized but no action endpoint configured",
			slog.String("entity", intent.EntityID()),
			slog.String("action", string(intent.Action)),
		)

		return
	}

	err := v.homeAssistant.CallService(ctx, command_mapper.Domain, string(intent.Action), intent.EntityID())
	if err != nil {
		v.metrics.DispatchFailures.Inc()
		v.logger.Error("dispatch failed", slog.Any("error", err))

		return
	}

	v.metrics.CommandsDispatched.Inc()
	v.logger.Info("command dispatched",
		slog.String("entity", intent.EntityID()),
		slog.String("action", string(intent.Action)),
	)
}

func (v *voiceImpl) writeSidecar(clip *clip_store.Clip) {
	if err := v.clipStore.WriteSidecar(clip); err != nil {
		v.logger.Error("writing sidecar", slog.Any("error", err))
	}
}

func joinSegments(segments []speech_to_text.Segment) string {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		parts = append(parts, strings.TrimSpace(segment.Text))
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}
