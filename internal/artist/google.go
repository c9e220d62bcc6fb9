package artist

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GoogleGenerator generates images through the Gemini API Imagen models
type GoogleGenerator struct {
	client *genai.Client
	model  string
}

// NewGoogleGenerator creates an Imagen-backed generator on the shared genai client
func NewGoogleGenerator(client *genai.Client, model string) *GoogleGenerator {
	return &GoogleGenerator{client: client, model: model}
}

func (g *GoogleGenerator) Name() string  { return "google" }
func (g *GoogleGenerator) Model() string { return g.model }

// Generate produces one image for the prompt
func (g *GoogleGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return nil, &VendorError{Vendor: g.Name(), Err: err}
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, &VendorError{Vendor: g.Name(), Err: fmt.Errorf("no image returned by model %s", g.model)}
	}
	return resp.GeneratedImages[0].Image.ImageBytes, nil
}
