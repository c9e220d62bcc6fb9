package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const visionPrompt = `Describe this photo in 2-4 sentences for a children's story writer.
Focus on the setting, the activity, objects, animals and the overall mood.
Do not mention names and do not include anything that could identify a real person.`

// VisionAgent turns image bytes into a text description using a Gemini
// multimodal model.
type VisionAgent struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewVisionAgent creates a vision agent backed by the shared genai client
func NewVisionAgent(client *genai.Client, model string, logger *zap.Logger) *VisionAgent {
	return &VisionAgent{client: client, model: model, logger: logger}
}

// Describe returns a text description of the photo. Any vendor-side failure
// is reported as an AgentError; the caller decides whether to retry.
func (a *VisionAgent) Describe(ctx context.Context, image []byte, mime string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	parts := []*genai.Part{
		genai.NewPartFromText(visionPrompt),
		genai.NewPartFromBytes(image, mime),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := a.client.Models.GenerateContent(callCtx, a.model, contents, nil)
	if err != nil {
		return "", NewAgentError("vision", err)
	}

	description := strings.TrimSpace(result.Text())
	if description == "" {
		return "", NewAgentError("vision", fmt.Errorf("empty description from model %s", a.model))
	}

	a.logger.Debug("image described",
		zap.String("model", a.model),
		zap.Int("description_len", len(description)),
	)
	return description, nil
}
