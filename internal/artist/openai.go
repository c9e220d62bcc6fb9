package artist

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go"
)

// OpenAIGenerator generates images through the OpenAI images endpoint
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a DALL-E backed generator on the shared OpenAI client
func NewOpenAIGenerator(client *openai.Client, model string) *OpenAIGenerator {
	return &OpenAIGenerator{client: client, model: model}
}

func (g *OpenAIGenerator) Name() string  { return "openai" }
func (g *OpenAIGenerator) Model() string { return g.model }

// Generate produces one image for the prompt
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(g.model),
		Size:           openai.ImageGenerateParamsSize1024x1024,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		N:              openai.Int(1),
	})
	if err != nil {
		return nil, &VendorError{Vendor: g.Name(), Err: err}
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, &VendorError{Vendor: g.Name(), Err: fmt.Errorf("no image data returned by model %s", g.model)}
	}

	image, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, &VendorError{Vendor: g.Name(), Err: fmt.Errorf("decoding image data: %w", err)}
	}
	return image, nil
}
