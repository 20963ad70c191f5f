package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"ai-companion-demo/backend/ai"
	"ai-companion-demo/backend/pkg/cache"
	apperrors "ai-companion-demo/backend/pkg/errors"
	"ai-companion-demo/backend/pkg/logger"
	"ai-companion-demo/backend/pkg/observability"
)

// SpeechService turns text into audio. Synthesized audio is cached by
// (voice, text) so replaying a message does not call the provider again.
type SpeechService struct {
	synth   ai.SpeechSynthesizer
	store   cache.Store
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewSpeechService creates the service. A nil synthesizer means speech is
// disabled (no API key configured).
func NewSpeechService(synth ai.SpeechSynthesizer, store cache.Store, metrics *observability.Metrics, log *logger.Logger) *SpeechService {
	return &SpeechService{synth: synth, store: store, metrics: metrics, log: log}
}

// Enabled reports whether a synthesizer is configured.
func (s *SpeechService) Enabled() bool {
	return s.synth != nil
}

// Synthesize returns the audio bytes for the text. Unrecognized voice names
// fall back to the default voice rather than failing.
func (s *SpeechService) Synthesize(ctx context.Context, text, voiceName string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		s.metrics.RecordSpeech(ctx, observability.OutcomeValidationError)
		return nil, apperrors.NewBadRequestError("EMPTY_TEXT", "文本内容不能为空")
	}

	if !s.Enabled() {
		s.metrics.RecordSpeech(ctx, observability.OutcomeProviderError)
		return nil, apperrors.NewServiceUnavailableError("SPEECH_DISABLED", "语音功能未启用")
	}

	voice := ai.NormalizeVoice(voiceName)
	key := audioCacheKey(voice, text)

	if s.store != nil {
		if audio, ok := s.store.Get(ctx, key); ok {
			s.metrics.RecordSpeech(ctx, observability.OutcomeCacheHit)
			return audio, nil
		}
	}

	audio, err := s.synth.Synthesize(ctx, text, voice)
	if err != nil {
		s.log.LogError(err, "speech synthesis failed", "voice", voice)
		s.metrics.RecordSpeech(ctx, observability.OutcomeProviderError)
		return nil, apperrors.NewBadGatewayError("SPEECH_FAILED", "语音生成失败，请稍后重试")
	}

	if s.store != nil {
		s.store.Set(ctx, key, audio)
	}

	s.metrics.RecordSpeech(ctx, observability.OutcomeSuccess)
	return audio, nil
}

func audioCacheKey(voice, text string) string {
	sum := sha256.Sum256([]byte(voice + "\x00" + text))
	return "speech:" + hex.EncodeToString(sum[:])
}
