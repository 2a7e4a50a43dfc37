package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Audio capture format. The detector thresholds and the wake word model are
// calibrated for this format, so it is fixed rather than configurable.
const (
	SampleRate = 16000
	Channels   = 1
	FrameSize  = 1024
)

type Mode string

const (
	ModeWakeWord   Mode = "wakeword"
	ModeContinuous Mode = "continuous"
)

type Config struct {
	Mode Mode

	WhisperModelPath   string
	WakeWordModelPath  string
	WakeWordLabels     []string
	OnnxRuntimeLib     string
	DetectionThreshold float32

	Language   string
	ASRTimeout time.Duration

	HomeAssistantHost  string
	HomeAssistantToken string

	AudioDir string

	BufferDuration        time.Duration
	SilenceDuration       time.Duration
	MinSpeechDuration     time.Duration
	TranscriptionInterval time.Duration
	NoiseThreshold        float64

	MetricsAddr string
	LogLevel    slog.Level
}

// Load reads the configuration from the environment. It is called once at
// startup; there is no live reconfiguration.
func Load() (*Config, error) {
	cfg := &Config{
		Mode:               Mode(envString("MODE", string(ModeWakeWord))),
		WhisperModelPath:   os.Getenv("WHISPER_MODEL_PATH"),
		WakeWordModelPath:  os.Getenv("WAKEWORD_MODEL_PATH"),
		WakeWordLabels:     splitLabels(envString("WAKEWORD_LABELS", "hey_jarvis,ok_google,alexa")),
		OnnxRuntimeLib:     os.Getenv("ONNXRUNTIME_LIB_PATH"),
		Language:           envString("ASR_LANGUAGE", "de"),
		HomeAssistantHost:  os.Getenv("HOMEASSISTANT_HOST"),
		HomeAssistantToken: os.Getenv("HOMEASSISTANT_TOKEN"),
		AudioDir:           envString("AUDIO_DIR", "audio"),
		MetricsAddr:        os.Getenv("METRICS_ADDR"),
	}

	var err error

	if cfg.BufferDuration, err = envDuration("BUFFER_DURATION", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.SilenceDuration, err = envDuration("SILENCE_DURATION", time.Second); err != nil {
		return nil, err
	}

	if cfg.MinSpeechDuration, err = envDuration("MIN_SPEECH_DURATION", time.Second); err != nil {
		return nil, err
	}

	if cfg.TranscriptionInterval, err = envDuration("CONTINUOUS_TRANSCRIPTION_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}

	if cfg.ASRTimeout, err = envDuration("ASR_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.NoiseThreshold, err = envFloat("NOISE_THRESHOLD", 0.01); err != nil {
		return nil, err
	}

	threshold, err := envFloat("DETECTION_THRESHOLD", 0.5)
	if err != nil {
		return nil, err
	}

	cfg.DetectionThreshold = float32(threshold)

	if cfg.LogLevel, err = parseLogLevel(envString("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Mode != ModeWakeWord && cfg.Mode != ModeContinuous {
		return fmt.Errorf("MODE must be %q or %q, got %q", ModeWakeWord, ModeContinuous, cfg.Mode)
	}

	if cfg.WhisperModelPath == "" {
		return fmt.Errorf("WHISPER_MODEL_PATH is not set")
	}

	if cfg.Mode == ModeWakeWord {
		if cfg.WakeWordModelPath == "" {
			return fmt.Errorf("WAKEWORD_MODEL_PATH is not set but MODE is %q", ModeWakeWord)
		}

		if len(cfg.WakeWordLabels) == 0 {
			return fmt.Errorf("WAKEWORD_LABELS is empty")
		}
	}

	if cfg.BufferDuration <= 0 {
		return fmt.Errorf("BUFFER_DURATION must be positive, got %s", cfg.BufferDuration)
	}

	if cfg.NoiseThreshold <= 0 {
		return fmt.Errorf("NOISE_THRESHOLD must be positive, got %g", cfg.NoiseThreshold)
	}

	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	// Bare numbers are accepted as seconds.
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return d, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return f, nil
}

func splitLabels(v string) []string {
	var labels []string

	for _, label := range strings.Split(v, ",") {
		label = strings.TrimSpace(label)
		if label != "" {
			labels = append(labels, label)
		}
	}

	return labels
}

func parseLogLevel(v string) (slog.Level, error) {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("LOG_LEVEL: unknown level %q", v)
	}
}
