package livegan

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderToggle(t *testing.T) {
	spy := &writerSpy{}
	r := NewRecorder(spy.open, 30, &clipList{}, quietLogger())
	var finished []string
	r.AfterClose = func(path string) { finished = append(finished, path) }

	assert.False(t, r.Recording())
	require.NoError(t, r.Toggle(8, 4))
	assert.True(t, r.Recording())
	assert.Equal(t, "clip-0.mp4", r.Path())
	require.Len(t, spy.writers, 1)
	assert.Equal(t, 8, spy.writers[0].width)
	assert.Equal(t, 4, spy.writers[0].height)

	require.NoError(t, r.Toggle(8, 4))
	assert.False(t, r.Recording())
	assert.Equal(t, 1, spy.writers[0].closed)
	assert.Equal(t, []string{"clip-0.mp4"}, finished)

	require.NoError(t, r.Toggle(8, 4))
	assert.Equal(t, "clip-1.mp4", r.Path())
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, 1, spy.writers[1].closed, "close is idempotent")
}

func TestRecorderWrite(t *testing.T) {
	spy := &writerSpy{}
	r := NewRecorder(spy.open, 30, &clipList{}, quietLogger())
	frame := solidImage(8, 4, color.Black)

	require.NoError(t, r.Write(frame), "idle write is a no-op")
	assert.Empty(t, spy.events)

	require.NoError(t, r.Toggle(8, 4))
	require.NoError(t, r.Write(frame))
	require.NoError(t, r.Write(frame))
	require.NoError(t, r.Close())
	assert.Equal(t, []string{"open", "write", "write", "close"}, spy.events)

	require.NoError(t, r.Toggle(8, 4))
	err := r.Write(solidImage(4, 4, color.Black))
	assert.ErrorIs(t, err, ErrRecording)
}

func TestRecorderOpenFailureStaysIdle(t *testing.T) {
	spy := &writerSpy{fail: true}
	r := NewRecorder(spy.open, 30, &clipList{}, quietLogger())

	err := r.Toggle(8, 4)
	assert.ErrorIs(t, err, ErrRecording)
	assert.False(t, r.Recording())
	assert.Empty(t, r.Path())
	assert.NoError(t, r.Write(solidImage(8, 4, color.Black)))
	assert.NoError(t, r.Close())
}
