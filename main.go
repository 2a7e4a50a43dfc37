package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"

	"assistant-voice-control/clients/home_assistant"
	"assistant-voice-control/clip_store"
	"assistant-voice-control/config"
	"assistant-voice-control/listener"
	"assistant-voice-control/metrics"
	"assistant-voice-control/ring_buffer"
	"assistant-voice-control/speech_detection"
	"assistant-voice-control/speech_to_text"
	"assistant-voice-control/trigger"
	"assistant-voice-control/wake_word"
)

const (
	modelInitRetries     = 5
	modelInitMaxInterval = 10 * time.Second
)

func main() {
	// A .env file is a convenience for development; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting",
		slog.String("mode", string(cfg.Mode)),
		slog.String("language", cfg.Language),
		slog.Duration("buffer_duration", cfg.BufferDuration),
	)

	model, err := loadWhisperModel(cfg, logger)
	if err != nil {
		return fmt.Errorf("loading whisper model: %w", err)
	}

	defer model.Close()

	fileSys := afero.NewOsFs()

	sttEngine, err := speech_to_text.New(&speech_to_text.Config{
		Model:   model,
		FileSys: fileSys,
	})
	if err != nil {
		return fmt.Errorf("creating stt engine: %w", err)
	}

	policy, cleanup, err := buildPolicy(cfg, logger)
	if err != nil {
		return err
	}

	defer cleanup()

	store, err := clip_store.New(&clip_store.Config{
		FileSys:    fileSys,
		Dir:        cfg.AudioDir,
		SampleRate: config.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("creating clip store: %w", err)
	}

	var haClient home_assistant.HomeAssistantAPI

	if cfg.HomeAssistantHost != "" {
		haClient, err = home_assistant.NewClient(&home_assistant.Config{
			ApiHost: cfg.HomeAssistantHost,
			Token:   cfg.HomeAssistantToken,
		})
		if err != nil {
			return fmt.Errorf("creating home assistant client: %w", err)
		}
	} else {
		logger.Warn("HOMEASSISTANT_HOST not set, commands will not be dispatched")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, logger)
	}

	detect, err := listener.New(&listener.Config{
		Detector:      speech_detection.New(config.SampleRate, cfg.NoiseThreshold),
		Buffer:        ring_buffer.New(config.SampleRate * int(cfg.BufferDuration.Seconds())),
		Policy:        policy,
		STTEngine:     sttEngine,
		ClipStore:     store,
		HomeAssistant: haClient,
		Metrics:       m,
		Logger:        logger,
		SampleRate:    config.SampleRate,
		FrameSize:     config.FrameSize,
		Language:      cfg.Language,
		ASRTimeout:    cfg.ASRTimeout,
	})
	if err != nil {
		return fmt.Errorf("creating listener: %w", err)
	}

	return detect.Listen(ctx)
}

// loadWhisperModel retries with backoff: on constrained hardware the model
// file may still be syncing at boot.
func loadWhisperModel(cfg *config.Config, logger *slog.Logger) (whisper.Model, error) {
	var model whisper.Model

	load := func() error {
		m, err := whisper.New(cfg.WhisperModelPath)
		if err != nil {
			logger.Warn("whisper model not ready, retrying",
				slog.String("path", cfg.WhisperModelPath),
				slog.Any("error", err),
			)

			return err
		}

		model = m

		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = modelInitMaxInterval

	if err := backoff.Retry(load, backoff.WithMaxRetries(policy, modelInitRetries)); err != nil {
		return nil, err
	}

	return model, nil
}

// buildPolicy constructs the trigger policy for the configured mode. The
// returned cleanup releases the wake word model resources, if any.
func buildPolicy(cfg *config.Config, logger *slog.Logger) (trigger.Policy, func(), error) {
	if cfg.Mode == config.ModeContinuous {
		policy, err := trigger.NewContinuous(&trigger.ContinuousConfig{
			SampleRate:        config.SampleRate,
			FrameSize:         config.FrameSize,
			MinSpeechDuration: cfg.MinSpeechDuration,
			SilenceDuration:   cfg.SilenceDuration,
			Interval:          cfg.TranscriptionInterval,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating continuous policy: %w", err)
		}

		return policy, func() {}, nil
	}

	if err := wake_word.Initialize(cfg.OnnxRuntimeLib); err != nil {
		return nil, nil, fmt.Errorf("initializing onnxruntime: %w", err)
	}

	var scorer wake_word.Interface

	load := func() error {
		s, err := wake_word.New(&wake_word.Config{
			ModelPath: cfg.WakeWordModelPath,
			Labels:    cfg.WakeWordLabels,
			FrameSize: config.FrameSize,
		})
		if err != nil {
			logger.Warn("wake word model not ready, retrying",
				slog.String("path", cfg.WakeWordModelPath),
				slog.Any("error", err),
			)

			return err
		}

		scorer = s

		return nil
	}

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxInterval = modelInitMaxInterval

	if err := backoff.Retry(load, backoff.WithMaxRetries(retryPolicy, modelInitRetries)); err != nil {
		return nil, nil, fmt.Errorf("loading wake word model: %w", err)
	}

	wakePolicy, err := trigger.NewWakeWord(&trigger.WakeWordConfig{
		Scorer:    scorer,
		Threshold: cfg.DetectionThreshold,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating wake word policy: %w", err)
	}

	cleanup := func() {
		if err := scorer.Close(); err != nil {
			logger.Error("closing wake word model", slog.Any("error", err))
		}

		if err := wake_word.Destroy(); err != nil {
			logger.Error("destroying onnxruntime", slog.Any("error", err))
		}
	}

	return wakePolicy, cleanup, nil
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("serving metrics", slog.String("addr", addr))

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server", slog.Any("error", err))
	}
}
