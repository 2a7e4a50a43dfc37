package speech_to_text

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{FileSys: afero.NewMemMapFs()})
	assert.Error(t, err, "model is required")
}

func TestMeanTokenProbability(t *testing.T) {
	assert.Equal(t, 0.0, meanTokenProbability(nil))

	tokens := []whisper.Token{
		{P: 0.5},
		{P: 1.0},
	}
	assert.InDelta(t, 0.75, meanTokenProbability(tokens), 1e-9)
}
