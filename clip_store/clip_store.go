package clip_store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	wave "github.com/zenwerk/go-wave"
)

const (
	filenamePrefix = "wake_word_"
	timestampKey   = "20060102_150405"
	bitsPerSample  = 16
	channels       = 1
)

// Metadata is the sidecar record written next to every clip. Transcription
// and Error are filled in after the ASR pass; exactly one of them ends up
// set for a completed trigger.
type Metadata struct {
	Timestamp     string  `json:"timestamp"`
	SampleRate    int     `json:"sample_rate"`
	Channels      int     `json:"channels"`
	Duration      float64 `json:"duration"`
	Trigger       string  `json:"trigger"`
	Transcription string  `json:"transcription,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// Clip is one persisted trigger event.
type Clip struct {
	Path string
	Meta Metadata
}

type Store struct {
	fileSys    afero.Fs
	dir        string
	sampleRate int
	now        func() time.Time
}

type Config struct {
	FileSys    afero.Fs
	Dir        string
	SampleRate int

	// Now is the clock used for filename timestamps; defaults to time.Now.
	Now func() time.Time
}

func New(cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if cfg.Dir == "" {
		return nil, fmt.Errorf("dir is empty")
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sampleRate must be positive")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	if err := cfg.FileSys.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating clip directory %q: %w", cfg.Dir, err)
	}

	return &Store{
		fileSys:    cfg.FileSys,
		dir:        cfg.Dir,
		sampleRate: cfg.SampleRate,
		now:        now,
	}, nil
}

// Save writes the snapshot as a 16-bit PCM WAV keyed by timestamp and
// returns the clip handle. The caller fills in the transcription outcome and
// then calls WriteSidecar.
func (s *Store) Save(samples []float32, trigger string) (*Clip, error) {
	timestamp := s.now().Format(timestampKey)
	path := filepath.Join(s.dir, filenamePrefix+timestamp+".wav")

	waveFile, err := s.fileSys.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %q: %w", path, err)
	}

	waveWriter, err := wave.NewWriter(wave.WriterParam{
		Out:           waveFile,
		Channel:       channels,
		SampleRate:    s.sampleRate,
		BitsPerSample: bitsPerSample,
	})
	if err != nil {
		waveFile.Close()

		return nil, fmt.Errorf("creating wave writer: %w", err)
	}

	if _, err := waveWriter.WriteSample16(toPCM16(samples)); err != nil {
		waveWriter.Close()

		return nil, fmt.Errorf("writing samples: %w", err)
	}

	if err := waveWriter.Close(); err != nil {
		return nil, fmt.Errorf("closing wave writer: %w", err)
	}

	return &Clip{
		Path: path,
		Meta: Metadata{
			Timestamp:  timestamp,
			SampleRate: s.sampleRate,
			Channels:   channels,
			Duration:   float64(len(samples)) / float64(s.sampleRate),
			Trigger:    trigger,
		},
	}, nil
}

// WriteSidecar persists the clip's metadata record next to the WAV file.
func (s *Store) WriteSidecar(clip *Clip) error {
	data, err := json.MarshalIndent(clip.Meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	path := clip.Path + ".json"

	if err := afero.WriteFile(s.fileSys, path, data, 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}

	return nil
}

func toPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))

	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}

		out[i] = int16(s * 32767)
	}

	return out
}
