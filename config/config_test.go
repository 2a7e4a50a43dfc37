package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WHISPER_MODEL_PATH", "/models/ggml-base.bin")
	t.Setenv("WAKEWORD_MODEL_PATH", "/models/wake_word.onnx")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ModeWakeWord, cfg.Mode)
	assert.Equal(t, []string{"hey_jarvis", "ok_google", "alexa"}, cfg.WakeWordLabels)
	assert.Equal(t, "de", cfg.Language)
	assert.Equal(t, 30*time.Second, cfg.BufferDuration)
	assert.Equal(t, time.Second, cfg.SilenceDuration)
	assert.Equal(t, time.Second, cfg.MinSpeechDuration)
	assert.Equal(t, 10*time.Second, cfg.TranscriptionInterval)
	assert.Equal(t, 0.01, cfg.NoiseThreshold)
	assert.Equal(t, float32(0.5), cfg.DetectionThreshold)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_ContinuousMode(t *testing.T) {
	t.Setenv("MODE", "continuous")
	t.Setenv("WHISPER_MODEL_PATH", "/models/ggml-base.bin")
	t.Setenv("SILENCE_DURATION", "1.5")
	t.Setenv("CONTINUOUS_TRANSCRIPTION_INTERVAL", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ModeContinuous, cfg.Mode)
	assert.Equal(t, 1500*time.Millisecond, cfg.SilenceDuration)
	assert.Equal(t, 5*time.Second, cfg.TranscriptionInterval)
	// continuous mode does not need a wake word model
	assert.Empty(t, cfg.WakeWordModelPath)
}

func TestLoad_MissingWhisperModel(t *testing.T) {
	t.Setenv("MODE", "continuous")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WHISPER_MODEL_PATH")
}

func TestLoad_WakeWordModeRequiresModel(t *testing.T) {
	t.Setenv("MODE", "wakeword")
	t.Setenv("WHISPER_MODEL_PATH", "/models/ggml-base.bin")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WAKEWORD_MODEL_PATH")
}

func TestLoad_InvalidMode(t *testing.T) {
	t.Setenv("MODE", "sometimes")
	t.Setenv("WHISPER_MODEL_PATH", "/models/ggml-base.bin")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MODE")
}
