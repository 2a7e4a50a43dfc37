package speech_to_text

import (
	"context"
	"fmt"
	"io"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

type sttImpl struct {
	model   whisper.Model
	fileSys afero.Fs
}

type Config struct {
	Model   whisper.Model
	FileSys afero.Fs
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Model == nil {
		return nil, fmt.Errorf("model is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	return &sttImpl{
		model:   cfg.Model,
		fileSys: cfg.FileSys,
	}, nil
}

// Process transcribes a persisted clip. The context deadline bounds the
// model call; on expiry the in-flight transcription is abandoned and the
// error surfaces to the caller.
func (stt *sttImpl) Process(ctx context.Context, wavPath string, language string) ([]Segment, error) {
	data, err := stt.loadClip(wavPath)
	if err != nil {
		return nil, err
	}

	whisperCtx, err := stt.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("creating whisper context: %w", err)
	}

	if language != "" {
		if err := whisperCtx.SetLanguage(language); err != nil {
			return nil, fmt.Errorf("setting language %q: %w", language, err)
		}
	}

	// The model call has no cancellation hook, so it runs on its own
	// goroutine and is abandoned if the deadline passes first.
	done := make(chan error, 1)

	go func() {
		var cb whisper.SegmentCallback

		done <- whisperCtx.Process(data, cb)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("transcribing %q: %w", wavPath, ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("transcribing %q: %w", wavPath, err)
		}
	}

	return collectSegments(whisperCtx)
}

func (stt *sttImpl) loadClip(wavPath string) ([]float32, error) {
	waveFile, err := stt.fileSys.Open(wavPath)
	if err != nil {
		return nil, fmt.Errorf("opening clip %q: %w", wavPath, err)
	}

	defer waveFile.Close()

	decoder := wav.NewDecoder(waveFile)

	buffer, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding clip %q: %w", wavPath, err)
	}

	// Normalize PCM to the [-1, 1] range the model expects.
	bitDepth := buffer.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}

	scale := float32(int(1) << (bitDepth - 1))

	data := make([]float32, len(buffer.Data))
	for i, sample := range buffer.Data {
		data[i] = float32(sample) / scale
	}

	return data, nil
}

func collectSegments(whisperCtx whisper.Context) ([]Segment, error) {
	seenText := make(map[string]bool)

	segments := make([]Segment, 0)

	for {
		segment, err := whisperCtx.NextSegment()
		if err == io.EOF {
			return segments, nil
		} else if err != nil {
			return nil, err
		}

		// if segment text starts or ends with a parenthesis or a bracket,
		// then ignore it; the model marks non-speech events that way
		if len(segment.Text) > 0 && (segment.Text[0] == '(' || segment.Text[0] == '[' ||
			segment.Text[len(segment.Text)-1] == ')' || segment.Text[len(segment.Text)-1] == ']') {
			continue
		}

		// if we've already seen this text, then ignore it
		if seenText[segment.Text] {
			continue
		}

		seenText[segment.Text] = true

		segments = append(segments, Segment{
			Text:       segment.Text,
			Start:      segment.Start,
			End:        segment.End,
			Confidence: meanTokenProbability(segment.Tokens),
		})
	}
}

func meanTokenProbability(tokens []whisper.Token) float64 {
	if len(tokens) == 0 {
		return 0
	}

	var sum float64
	for _, token := range tokens {
		sum += float64(token.P)
	}

	return sum / float64(len(tokens))
}
