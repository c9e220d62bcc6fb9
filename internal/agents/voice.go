package agents

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/openai/openai-go"
	"go.uber.org/zap"
)

// VoiceAgent narrates story text through the OpenAI speech endpoint
type VoiceAgent struct {
	client *openai.Client
	model  string
	voice  string
	logger *zap.Logger
}

// NewVoiceAgent creates a voice agent on the shared OpenAI client
func NewVoiceAgent(client *openai.Client, model, voice string, logger *zap.Logger) *VoiceAgent {
	return &VoiceAgent{client: client, model: model, voice: voice, logger: logger}
}

// Narrate synthesizes narration audio for the story text and returns the
// audio bytes with their content type. The TTS vendor infers pronunciation
// from the text itself; language is kept for logging and future voice
// selection.
func (a *VoiceAgent) Narrate(ctx context.Context, text, language string) ([]byte, string, error) {
	callCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	resp, err := a.client.Audio.Speech.New(callCtx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(a.model),
		Voice:          openai.AudioSpeechNewParamsVoice(a.voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, "", NewAgentError("voice", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", NewAgentError("voice", fmt.Errorf("reading speech response: %w", err))
	}
	if len(audio) == 0 {
		return nil, "", NewAgentError("voice", fmt.Errorf("empty audio from model %s", a.model))
	}

	a.logger.Debug("narration synthesized",
		zap.String("model", a.model),
		zap.String("voice", a.voice),
		zap.String("language", language),
		zap.Int("audio_bytes", len(audio)),
	)
	return audio, "audio/mpeg", nil
}
