package artist

import (
	"math/rand"
	"strings"
	"sync"
)

// Style is one representation style a cover can be rendered in
type Style struct {
	Name        string
	Description string
	Weight      float64
}

// DefaultStyles are the representation styles used when none are configured
var DefaultStyles = []Style{
	{
		Name:        "watercolor",
		Description: "Soft dreamy watercolor children's book illustration with gentle pastel washes, delicate brush strokes and warm golden light",
		Weight:      0.4,
	},
	{
		Name:        "cartoon",
		Description: "Playful rounded cartoon style with bold friendly outlines, vivid cheerful colors and expressive oversized eyes",
		Weight:      0.4,
	},
	{
		Name:        "papercut",
		Description: "Layered paper-cut collage style with textured card stock shapes, soft drop shadows and a handcrafted storybook feel",
		Weight:      0.2,
	},
}

const technicalFooter = "Children's picture book cover, no text or lettering, bright palette, soft shapes, friendly faces, safe and comforting for young children"

// PromptConfig bounds and shapes cover prompt assembly
type PromptConfig struct {
	// MaxTotalWords is the hard word budget for the assembled prompt
	MaxTotalWords int
	// IncludeKids is the master toggle for using the child's likeness
	IncludeKids bool
	// KidLikenessProbability is the chance the likeness is included on any
	// given cover when the master toggle is on
	KidLikenessProbability float64
	// Styles to draw from; DefaultStyles when empty
	Styles []Style
}

// PromptBuilder assembles bounded cover prompts. All randomness comes from
// the injected rng, so a fixed seed reproduces the exact same prompt.
type PromptBuilder struct {
	cfg PromptConfig

	// rand.Rand is not safe for concurrent use; parallel pipeline runs
	// share one builder.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPromptBuilder creates a builder with the given config and random source
func NewPromptBuilder(cfg PromptConfig, rng *rand.Rand) *PromptBuilder {
	if len(cfg.Styles) == 0 {
		cfg.Styles = DefaultStyles
	}
	return &PromptBuilder{cfg: cfg, rng: rng}
}

// Build assembles a prompt from four weighted sections: style (~40% of the
// word budget), scene (~30%), character likeness (~20%, probabilistic) and a
// technical footer. When the naive concatenation exceeds the budget the
// style section keeps 40% of the budget verbatim-truncated and the remaining
// sections are truncated proportionally to fill the rest.
//
// The rng is consumed in a fixed order (likeness draw, then style draw) so
// the result is deterministic for a given seed and input.
func (b *PromptBuilder) Build(scene, character string) string {
	b.mu.Lock()
	likenessDraw := b.rng.Float64()
	style := b.pickStyle()
	b.mu.Unlock()

	includeLikeness := b.cfg.IncludeKids &&
		strings.TrimSpace(character) != "" &&
		likenessDraw < b.cfg.KidLikenessProbability

	sections := []string{style.Description, strings.TrimSpace(scene)}
	if includeLikeness {
		sections = append(sections, "The main character is "+strings.TrimSpace(character))
	}
	sections = append(sections, technicalFooter)

	return compose(sections, b.cfg.MaxTotalWords)
}

func (b *PromptBuilder) pickStyle() Style {
	total := 0.0
	for _, s := range b.cfg.Styles {
		total += s.Weight
	}
	if total <= 0 {
		return b.cfg.Styles[0]
	}
	draw := b.rng.Float64() * total
	for _, s := range b.cfg.Styles {
		draw -= s.Weight
		if draw < 0 {
			return s
		}
	}
	return b.cfg.Styles[len(b.cfg.Styles)-1]
}

// compose joins the sections, compressing them into the word budget when the
// naive concatenation is too long. sections[0] is the style section.
func compose(sections []string, maxWords int) string {
	nonEmpty := sections[:0]
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	sections = nonEmpty

	total := 0
	for _, s := range sections {
		total += wordCount(s)
	}
	if maxWords <= 0 || total <= maxWords {
		return strings.Join(sections, ". ")
	}

	styleBudget := maxWords * 4 / 10
	style := truncateWords(sections[0], styleBudget)
	remaining := maxWords - wordCount(style)

	rest := sections[1:]
	restTotal := 0
	for _, s := range rest {
		restTotal += wordCount(s)
	}

	out := []string{style}
	for _, s := range rest {
		quota := remaining
		if restTotal > 0 {
			quota = remaining * wordCount(s) / restTotal
		}
		if t := truncateWords(s, quota); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, ". ")
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func truncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	if n <= 0 {
		return ""
	}
	return strings.Join(words[:n], " ")
}
