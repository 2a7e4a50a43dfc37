package clip_store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, fs afero.Fs) *Store {
	t.Helper()

	store, err := New(&Config{
		FileSys:    fs,
		Dir:        "audio",
		SampleRate: 16000,
		Now: func() time.Time {
			return time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
		},
	})
	require.NoError(t, err)

	return store
}

func TestStore_Save(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := testStore(t, fs)

	samples := make([]float32, 16000) // one second
	clip, err := store.Save(samples, "hey_jarvis")
	require.NoError(t, err)

	assert.Equal(t, "audio/wake_word_20240301_123045.wav", clip.Path)
	assert.Equal(t, "20240301_123045", clip.Meta.Timestamp)
	assert.Equal(t, 16000, clip.Meta.SampleRate)
	assert.Equal(t, 1, clip.Meta.Channels)
	assert.Equal(t, 1.0, clip.Meta.Duration)
	assert.Equal(t, "hey_jarvis", clip.Meta.Trigger)

	exists, err := afero.Exists(fs, clip.Path)
	require.NoError(t, err)
	assert.True(t, exists)

	info, err := fs.Stat(clip.Path)
	require.NoError(t, err)
	// 44 byte header plus 2 bytes per sample
	assert.Equal(t, int64(44+2*len(samples)), info.Size())
}

func TestStore_WriteSidecar(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := testStore(t, fs)

	clip, err := store.Save(make([]float32, 1024), "interval")
	require.NoError(t, err)

	clip.Meta.Transcription = "schalte das licht im wohnzimmer aus"
	require.NoError(t, store.WriteSidecar(clip))

	data, err := afero.ReadFile(fs, clip.Path+".json")
	require.NoError(t, err)

	var meta Metadata
	require.NoError(t, json.Unmarshal(data, &meta))

	assert.Equal(t, clip.Meta, meta)
	assert.Empty(t, meta.Error)
}

func TestStore_SidecarRecordsTranscriptionError(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := testStore(t, fs)

	clip, err := store.Save(make([]float32, 1024), "interval")
	require.NoError(t, err)

	clip.Meta.Error = "transcription timed out"
	require.NoError(t, store.WriteSidecar(clip))

	data, err := afero.ReadFile(fs, clip.Path+".json")
	require.NoError(t, err)

	var meta Metadata
	require.NoError(t, json.Unmarshal(data, &meta))

	assert.Equal(t, "transcription timed out", meta.Error)
	assert.Empty(t, meta.Transcription)
}

func TestToPCM16_Clamps(t *testing.T) {
	out := toPCM16([]float32{0, 1, -1, 1.5, -1.5, 0.5})

	assert.Equal(t, int16(0), out[0])
	assert.Equal(t, int16(32767), out[1])
	assert.Equal(t, int16(-32767), out[2])
	assert.Equal(t, int16(32767), out[3])
	assert.Equal(t, int16(-32767), out[4])
	assert.Equal(t, int16(16383), out[5])
}
