package ai

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

const geminiTTSModel = "gemini-2.5-flash-preview-tts"

// DefaultVoice is used when the caller asks for a voice the TTS backend does
// not recognize.
const DefaultVoice = "Kore"

// recognizedVoices is the closed set of prebuilt Gemini TTS voices the app
// exposes.
var recognizedVoices = map[string]bool{
	"Kore":   true,
	"Zephyr": true,
	"Puck":   true,
	"Charon": true,
	"Fenrir": true,
	"Aoede":  true,
}

// NormalizeVoice maps unrecognized voice names to the default instead of
// rejecting them.
func NormalizeVoice(voiceName string) string {
	if recognizedVoices[voiceName] {
		return voiceName
	}
	return DefaultVoice
}

// ErrNoAudio is returned when the TTS backend answers without audio data.
var ErrNoAudio = errors.New("provider returned no audio")

// GeminiSpeech synthesizes speech through the Gemini TTS API.
type GeminiSpeech struct {
	client *genai.Client
}

func NewGeminiSpeech(ctx context.Context, apiKey string) (*GeminiSpeech, error) {
	genClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiSpeech{client: genClient}, nil
}

// Synthesize implements SpeechSynthesizer. The voice name must already be
// normalized through NormalizeVoice.
func (s *GeminiSpeech) Synthesize(ctx context.Context, text string, voiceName string) ([]byte, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voiceName},
			},
		},
	}

	res, err := s.client.Models.GenerateContent(ctx, geminiTTSModel, genai.Text(text), config)
	if err != nil {
		return nil, err
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return nil, ErrNoAudio
	}

	inline := res.Candidates[0].Content.Parts[0].InlineData
	if inline == nil || len(inline.Data) == 0 {
		return nil, ErrNoAudio
	}

	return inline.Data, nil
}
