package artist

import (
	"math/rand"
	"strings"
	"testing"
)

func longText(word string, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = word
	}
	return strings.Join(words, " ")
}

func TestPromptWithinBudget(t *testing.T) {
	maxWords := 50
	cfg := PromptConfig{
		MaxTotalWords:          maxWords,
		IncludeKids:            true,
		KidLikenessProbability: 1.0,
		Styles: []Style{
			{Name: "test", Description: longText("style", 100), Weight: 1},
		},
	}
	b := NewPromptBuilder(cfg, rand.New(rand.NewSource(7)))

	prompt := b.Build(longText("scene", 80), longText("kid", 40))

	got := len(strings.Fields(prompt))
	if got > maxWords {
		t.Errorf("prompt has %d words, budget is %d", got, maxWords)
	}

	styleBudget := maxWords * 4 / 10
	styleWords := 0
	for _, w := range strings.Fields(prompt) {
		if strings.HasPrefix(w, "style") {
			styleWords++
		}
	}
	if styleWords < styleBudget {
		t.Errorf("style section retained %d words, expected at least %d", styleWords, styleBudget)
	}
}

func TestShortPromptNotCompressed(t *testing.T) {
	cfg := PromptConfig{MaxTotalWords: 500, IncludeKids: false}
	b := NewPromptBuilder(cfg, rand.New(rand.NewSource(7)))

	prompt := b.Build("a small red boat on a calm lake", "")

	if !strings.Contains(prompt, "a small red boat on a calm lake") {
		t.Errorf("scene section should survive untruncated, got %q", prompt)
	}
	if !strings.Contains(prompt, "picture book cover") {
		t.Errorf("technical footer missing from %q", prompt)
	}
}

func TestPromptDeterministicForSeed(t *testing.T) {
	cfg := PromptConfig{
		MaxTotalWords:          120,
		IncludeKids:            true,
		KidLikenessProbability: 0.5,
	}

	first := NewPromptBuilder(cfg, rand.New(rand.NewSource(42))).Build("a snowy forest", "Luna, curly hair")
	second := NewPromptBuilder(cfg, rand.New(rand.NewSource(42))).Build("a snowy forest", "Luna, curly hair")

	if first != second {
		t.Errorf("same seed produced different prompts:\n%q\n%q", first, second)
	}
}

func TestLikenessRespectsMasterToggle(t *testing.T) {
	cfg := PromptConfig{
		MaxTotalWords:          200,
		IncludeKids:            false,
		KidLikenessProbability: 1.0,
	}
	b := NewPromptBuilder(cfg, rand.New(rand.NewSource(7)))

	prompt := b.Build("a snowy forest", "Luna, curly brown hair")

	if strings.Contains(prompt, "Luna") {
		t.Errorf("likeness included despite master toggle off: %q", prompt)
	}
}

func TestLikenessIncludedWhenProbabilityIsOne(t *testing.T) {
	cfg := PromptConfig{
		MaxTotalWords:          200,
		IncludeKids:            true,
		KidLikenessProbability: 1.0,
	}
	b := NewPromptBuilder(cfg, rand.New(rand.NewSource(7)))

	prompt := b.Build("a snowy forest", "Luna, curly brown hair")

	if !strings.Contains(prompt, "Luna") {
		t.Errorf("likeness missing despite probability 1.0: %q", prompt)
	}
}

func TestWeightedStyleSelectionIsStable(t *testing.T) {
	cfg := PromptConfig{
		MaxTotalWords: 300,
		Styles: []Style{
			{Name: "a", Description: "marker-alpha style", Weight: 0},
			{Name: "b", Description: "marker-beta style", Weight: 1},
		},
	}
	b := NewPromptBuilder(cfg, rand.New(rand.NewSource(3)))

	for i := 0; i < 10; i++ {
		prompt := b.Build("a lake", "")
		if !strings.Contains(prompt, "marker-beta") {
			t.Fatalf("zero-weight style selected on draw %d: %q", i, prompt)
		}
	}
}
