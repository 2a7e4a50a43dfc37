package ring_buffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_Append(t *testing.T) {
	t.Run("fill ring buffer with digits until it loops, and test that it works", func(t *testing.T) {
		buffer := New(10)

		for i := 0; i < 20; i++ {
			buffer.Append([]float32{float32(i)})
		}

		expected := []float32{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
		assert.Equal(t, expected, buffer.Snapshot())
	})

	t.Run("length stays constant across appends", func(t *testing.T) {
		buffer := New(16)

		for i := 0; i < 7; i++ {
			buffer.Append(make([]float32, 5))
			assert.Equal(t, 16, buffer.Len())
			assert.Len(t, buffer.Snapshot(), 16)
		}
	})

	t.Run("keeps the most recent samples in temporal order", func(t *testing.T) {
		buffer := New(8)

		// 4 frames of 3 samples: 12 samples total, only the last 8 survive.
		for f := 0; f < 4; f++ {
			frame := []float32{float32(f * 3), float32(f*3 + 1), float32(f*3 + 2)}
			buffer.Append(frame)
		}

		expected := []float32{4, 5, 6, 7, 8, 9, 10, 11}
		assert.Equal(t, expected, buffer.Snapshot())
	})

	t.Run("frame larger than buffer keeps its tail", func(t *testing.T) {
		buffer := New(4)

		buffer.Append([]float32{1, 2, 3, 4, 5, 6})

		assert.Equal(t, []float32{3, 4, 5, 6}, buffer.Snapshot())
	})
}

func TestBuffer_Clear(t *testing.T) {
	buffer := New(4)
	buffer.Append([]float32{1, 2, 3, 4})

	buffer.Clear()

	assert.Equal(t, []float32{0, 0, 0, 0}, buffer.Snapshot())
	assert.Equal(t, 4, buffer.Len())
}

func TestBuffer_ConcurrentSnapshot(t *testing.T) {
	buffer := New(1024)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()

		frame := make([]float32, 64)
		for i := 0; i < 1000; i++ {
			buffer.Append(frame)
		}
	}()

	go func() {
		defer wg.Done()

		for i := 0; i < 1000; i++ {
			assert.Len(t, buffer.Snapshot(), 1024)
		}
	}()

	wg.Wait()
}
