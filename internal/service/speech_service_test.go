package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-companion-demo/backend/ai"
	"ai-companion-demo/backend/pkg/cache"
	apperrors "ai-companion-demo/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSynth struct {
	audio     []byte
	err       error
	calls     int
	lastText  string
	lastVoice string
}

func (f *fakeSynth) Synthesize(_ context.Context, text, voice string) ([]byte, error) {
	f.calls++
	f.lastText = text
	f.lastVoice = voice
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}

func newSpeechFixture(synth ai.SpeechSynthesizer) *SpeechService {
	store := cache.NewMemory(time.Minute, 0, 16)
	return NewSpeechService(synth, store, nil, testLogger())
}

func TestSynthesizeSuccess(t *testing.T) {
	synth := &fakeSynth{audio: []byte("pcm-bytes")}
	svc := newSpeechFixture(synth)

	audio, err := svc.Synthesize(context.Background(), "你好", "Zephyr")
	require.NoError(t, err)

	assert.Equal(t, []byte("pcm-bytes"), audio)
	assert.Equal(t, "你好", synth.lastText)
	assert.Equal(t, "Zephyr", synth.lastVoice)
}

func TestSynthesizeCachesByVoiceAndText(t *testing.T) {
	synth := &fakeSynth{audio: []byte("pcm-bytes")}
	svc := newSpeechFixture(synth)

	_, err := svc.Synthesize(context.Background(), "你好", "Kore")
	require.NoError(t, err)
	require.Equal(t, 1, synth.calls)

	// Same voice and text hits the cache.
	audio, err := svc.Synthesize(context.Background(), "你好", "Kore")
	require.NoError(t, err)
	assert.Equal(t, []byte("pcm-bytes"), audio)
	assert.Equal(t, 1, synth.calls)

	// A different voice is a different cache entry.
	_, err = svc.Synthesize(context.Background(), "你好", "Puck")
	require.NoError(t, err)
	assert.Equal(t, 2, synth.calls)
}

func TestSynthesizeNormalizesUnknownVoice(t *testing.T) {
	synth := &fakeSynth{audio: []byte("pcm-bytes")}
	svc := newSpeechFixture(synth)

	_, err := svc.Synthesize(context.Background(), "你好", "默认甜美女声")
	require.NoError(t, err)
	assert.Equal(t, ai.DefaultVoice, synth.lastVoice)

	_, err = svc.Synthesize(context.Background(), "你好", "")
	require.NoError(t, err)
	assert.Equal(t, ai.DefaultVoice, synth.lastVoice)
}

func TestSynthesizeEmptyText(t *testing.T) {
	synth := &fakeSynth{audio: []byte("pcm-bytes")}
	svc := newSpeechFixture(synth)

	for _, text := range []string{"", "   "} {
		_, err := svc.Synthesize(context.Background(), text, "Kore")
		require.Error(t, err)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "EMPTY_TEXT", appErr.Code)
		assert.Equal(t, 400, appErr.StatusCode)
	}
	assert.Zero(t, synth.calls)
}

func TestSynthesizeDisabled(t *testing.T) {
	svc := newSpeechFixture(nil)
	assert.False(t, svc.Enabled())

	_, err := svc.Synthesize(context.Background(), "你好", "Kore")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SPEECH_DISABLED", appErr.Code)
	assert.Equal(t, 503, appErr.StatusCode)
}

func TestSynthesizeProviderFailure(t *testing.T) {
	synth := &fakeSynth{err: errors.New("quota exceeded")}
	svc := newSpeechFixture(synth)

	_, err := svc.Synthesize(context.Background(), "你好", "Kore")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SPEECH_FAILED", appErr.Code)
	assert.Equal(t, 502, appErr.StatusCode)

	// A failed synthesis must not poison the cache.
	synth.err = nil
	synth.audio = []byte("ok")
	audio, err := svc.Synthesize(context.Background(), "你好", "Kore")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), audio)
}

func TestSynthesizeWithoutCacheStore(t *testing.T) {
	synth := &fakeSynth{audio: []byte("pcm-bytes")}
	svc := NewSpeechService(synth, nil, nil, testLogger())

	_, err := svc.Synthesize(context.Background(), "你好", "Kore")
	require.NoError(t, err)
	_, err = svc.Synthesize(context.Background(), "你好", "Kore")
	require.NoError(t, err)
	assert.Equal(t, 2, synth.calls)
}
