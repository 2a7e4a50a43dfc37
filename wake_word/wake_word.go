package wake_word

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	inputName  = "input"
	outputName = "output"
)

type modelImpl struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	labels  []string
}

type Config struct {
	ModelPath string
	Labels    []string
	FrameSize int
}

// Initialize loads the onnxruntime shared library. Must be called once before
// New; libraryPath may be empty to use the platform default.
func Initialize(libraryPath string) error {
	if ort.IsInitialized() {
		return nil
	}

	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}

	return ort.InitializeEnvironment()
}

// Destroy releases the onnxruntime environment.
func Destroy() error {
	if !ort.IsInitialized() {
		return nil
	}

	return ort.DestroyEnvironment()
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("modelPath is empty")
	}

	if len(cfg.Labels) == 0 {
		return nil, fmt.Errorf("labels is empty")
	}

	if cfg.FrameSize <= 0 {
		return nil, fmt.Errorf("frameSize must be positive")
	}

	input, err := ort.NewTensor(ort.NewShape(1, int64(cfg.FrameSize)), make([]float32, cfg.FrameSize))
	if err != nil {
		return nil, fmt.Errorf("creating input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(cfg.Labels))))
	if err != nil {
		input.Destroy()

		return nil, fmt.Errorf("creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{inputName}, []string{outputName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()

		return nil, fmt.Errorf("loading wake word model %q: %w", cfg.ModelPath, err)
	}

	labels := make([]string, len(cfg.Labels))
	copy(labels, cfg.Labels)

	return &modelImpl{
		session: session,
		input:   input,
		output:  output,
		labels:  labels,
	}, nil
}

// Predict scores one frame against every label. Not safe for concurrent use;
// the capture path is the only caller.
func (m *modelImpl) Predict(frame []float32) ([]Score, error) {
	data := m.input.GetData()
	if len(frame) != len(data) {
		return nil, fmt.Errorf("expected %d samples, got %d", len(data), len(frame))
	}

	copy(data, frame)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("running wake word model: %w", err)
	}

	out := m.output.GetData()
	if len(out) != len(m.labels) {
		return nil, fmt.Errorf("model produced %d scores for %d labels", len(out), len(m.labels))
	}

	scores := make([]Score, len(m.labels))
	for i, label := range m.labels {
		scores[i] = Score{Label: label, Confidence: out[i]}
	}

	return scores, nil
}

func (m *modelImpl) Labels() []string {
	labels := make([]string, len(m.labels))
	copy(labels, m.labels)

	return labels
}

func (m *modelImpl) Close() error {
	m.session.Destroy()
	m.input.Destroy()
	m.output.Destroy()

	return nil
}
