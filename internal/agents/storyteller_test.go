package agents

import (
	"strings"
	"testing"
)

func TestParseDraftStrictJSON(t *testing.T) {
	raw := `{"title":"The Leaf Kingdom","content":"Once upon a time there was a castle of leaves.","cover_description":"a castle of golden leaves"}`

	draft, structured := parseDraft(raw)

	if !structured {
		t.Error("expected structured parse to succeed")
	}
	if draft.Title != "The Leaf Kingdom" {
		t.Errorf("unexpected title %q", draft.Title)
	}
	if draft.CoverDescription != "a castle of golden leaves" {
		t.Errorf("unexpected cover description %q", draft.CoverDescription)
	}
}

func TestParseDraftFencedJSON(t *testing.T) {
	raw := "```json\n{\"title\":\"Luna's Boat\",\"content\":\"Luna found a little boat.\",\"cover_description\":\"a red boat\"}\n```"

	draft, structured := parseDraft(raw)

	if !structured {
		t.Error("expected fenced JSON to parse as structured")
	}
	if draft.Title != "Luna's Boat" {
		t.Errorf("unexpected title %q", draft.Title)
	}
}

// Free-text vendor responses must never crash the pipeline: the first line
// becomes the title, the rest the body.
func TestParseDraftMarkdownFallback(t *testing.T) {
	raw := "# The Brave Little Fox\n\nOnce there was a fox who was afraid of the dark.\nBut one night everything changed."

	draft, structured := parseDraft(raw)

	if structured {
		t.Error("markdown response should not count as structured")
	}
	if draft.Title != "The Brave Little Fox" {
		t.Errorf("unexpected title %q", draft.Title)
	}
	if !strings.Contains(draft.Content, "afraid of the dark") {
		t.Errorf("content lost in fallback parse: %q", draft.Content)
	}
}

func TestParseDraftTitlePrefixStripped(t *testing.T) {
	raw := "Title: The Cloud Garden\nHigh above the town there was a garden made of clouds."

	draft, _ := parseDraft(raw)

	if draft.Title != "The Cloud Garden" {
		t.Errorf("unexpected title %q", draft.Title)
	}
}

func TestParseDraftSingleBlock(t *testing.T) {
	raw := "Once upon a time a turtle learned to dance and everyone cheered."

	draft, structured := parseDraft(raw)

	if structured {
		t.Error("plain text should not count as structured")
	}
	if draft.Title == "" {
		t.Error("fallback title should never be empty")
	}
	if draft.Content != raw {
		t.Errorf("single-block content should be kept whole, got %q", draft.Content)
	}
}
