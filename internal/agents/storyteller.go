package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"go.uber.org/zap"

	"github.com/mira/api/internal/models"
)

const storytellerSystemPrompt = `You are a warm, imaginative children's storyteller.
Write a short bedtime story (250-400 words) for the child described by the user.
The story must be age-appropriate, kind and free of anything frightening.
Respond with a JSON object with exactly these keys:
  "title": the story title,
  "content": the full story text,
  "cover_description": one sentence describing a picture-book cover for the story.
Respond with the JSON object only, no markdown fences and no commentary.`

// StorytellerAgent turns an image description plus a kid profile into a
// story draft using an OpenAI chat model.
type StorytellerAgent struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewStorytellerAgent creates a storyteller agent on the shared OpenAI client
func NewStorytellerAgent(client *openai.Client, model string, logger *zap.Logger) *StorytellerAgent {
	return &StorytellerAgent{client: client, model: model, logger: logger}
}

// Compose generates a story draft. Vendor failures surface as AgentError.
// Malformed vendor output never does; the draft is recovered heuristically.
func (a *StorytellerAgent) Compose(ctx context.Context, description string, kid models.KidProfile, language string) (models.StoryDraft, error) {
	callCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	completion, err := a.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(storytellerSystemPrompt),
			openai.UserMessage(a.buildUserPrompt(description, kid, language)),
		},
		Model: a.model,
	})
	if err != nil {
		return models.StoryDraft{}, NewAgentError("storyteller", err)
	}
	if len(completion.Choices) == 0 {
		return models.StoryDraft{}, NewAgentError("storyteller", fmt.Errorf("no choices from model %s", a.model))
	}

	raw := completion.Choices[0].Message.Content
	draft, structured := parseDraft(raw)
	if !structured {
		a.logger.Warn("storyteller returned unstructured text, recovered draft heuristically",
			zap.String("model", a.model),
			zap.String("title", draft.Title),
		)
	}
	if strings.TrimSpace(draft.Content) == "" {
		return models.StoryDraft{}, NewAgentError("storyteller", fmt.Errorf("empty story content from model %s", a.model))
	}
	return draft, nil
}

func (a *StorytellerAgent) buildUserPrompt(description string, kid models.KidProfile, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the story in language: %s.\n", language)
	fmt.Fprintf(&b, "The hero of the story is %s, age %d.\n", kid.Name, kid.Age)
	if kid.Appearance != "" {
		fmt.Fprintf(&b, "Appearance: %s.\n", kid.Appearance)
	}
	if len(kid.FavoriteGenres) > 0 {
		fmt.Fprintf(&b, "Favorite genres: %s.\n", strings.Join(kid.FavoriteGenres, ", "))
	}
	if kid.ParentalNotes != "" {
		fmt.Fprintf(&b, "Notes from the parents: %s.\n", kid.ParentalNotes)
	}
	fmt.Fprintf(&b, "\nThe story should be inspired by this photo description:\n%s\n", description)
	return b.String()
}

// parseDraft extracts a draft from the model response. It first tries strict
// JSON (with or without markdown fences); if that fails it falls back to
// treating the first line as the title and the rest as the body, so a vendor
// formatting quirk never fails the pipeline.
func parseDraft(raw string) (models.StoryDraft, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var draft models.StoryDraft
	if err := json.Unmarshal([]byte(cleaned), &draft); err == nil && strings.TrimSpace(draft.Content) != "" {
		draft.Title = strings.TrimSpace(draft.Title)
		draft.Content = strings.TrimSpace(draft.Content)
		return draft, true
	}

	lines := strings.SplitN(cleaned, "\n", 2)
	title := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[0]), "#"))
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))
	content := ""
	if len(lines) > 1 {
		content = strings.TrimSpace(lines[1])
	}
	if content == "" {
		// Single block of text: keep everything as content.
		title = ""
		content = cleaned
	}
	if title == "" {
		title = "A Story for You"
	}
	return models.StoryDraft{Title: title, Content: content}, false
}
