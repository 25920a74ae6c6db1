package tutor

import (
	"strings"
	"testing"

	"github.com/iyunix/go-sage/internal/domain"
)

func TestDetectTopic(t *testing.T) {
	tests := []struct {
		text  string
		want  string
		found bool
	}{
		{"How do JavaScript promises work?", "JavaScript", true},
		{"node JS streams", "JavaScript", true},
		{"React hooks", "React", true},
		{"learning PYTHON", "Python", true},
		{"database normalization", "Database Design", true},
		{"sorting algorithms", "Algorithms", true},
		{"react or python?", "React", true},
		{"the history of Rome", "", false},
	}
	for _, tt := range tests {
		got, ok := DetectTopic(tt.text)
		if got != tt.want || ok != tt.found {
			t.Errorf("DetectTopic(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.found)
		}
	}
}

func TestDetectLevel(t *testing.T) {
	tests := []struct {
		text  string
		want  domain.Level
		found bool
	}{
		{"an Advanced question", domain.LevelAdvanced, true},
		{"this seems complex", domain.LevelAdvanced, true},
		{"I am intermediate", domain.LevelIntermediate, true},
		{"I have some experience", domain.LevelIntermediate, true},
		{"I am new here", "", false},
	}
	for _, tt := range tests {
		got, ok := DetectLevel(tt.text)
		if got != tt.want || ok != tt.found {
			t.Errorf("DetectLevel(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.found)
		}
	}
}

func TestClassifyReply(t *testing.T) {
	tests := []struct {
		text string
		want domain.MessageCategory
	}{
		{"That was excellent work!", domain.CategoryEncouragement},
		{"That's good thinking. Now try again.", domain.CategoryEncouragement},
		{"Take a moment to reflect on that.", domain.CategoryReflection},
		{"You might consider the base case.", domain.CategoryReflection},
		{"Now try writing it out.", domain.CategoryGuidance},
		{"What approach would you take?", domain.CategoryGuidance},
		// Capitalized keywords do not match.
		{"Excellent observation!", domain.CategoryQuestion},
		{"Consider the base case.", domain.CategoryQuestion},
		{"Try writing it out.", domain.CategoryQuestion},
		{"Reflect on that.", domain.CategoryQuestion},
		{"What happens next?", domain.CategoryQuestion},
		{"", domain.CategoryQuestion},
	}
	for _, tt := range tests {
		if got := ClassifyReply(tt.text); got != tt.want {
			t.Errorf("ClassifyReply(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestUpdateLearningContext(t *testing.T) {
	lc := UpdateLearningContext(nil, "hello there")
	if lc.Topic != DefaultTopic || lc.UserLevel != domain.LevelBeginner || lc.CurrentFocus != DefaultTopic {
		t.Fatalf("initial context = %+v", lc)
	}
	if len(lc.PreviousQuestions) != 1 || len(lc.UserInsights) != 1 {
		t.Fatalf("windows = %v / %v", lc.PreviousQuestions, lc.UserInsights)
	}

	next := UpdateLearningContext(lc, "advanced algorithm design")
	if next.Topic != "Algorithms" || next.CurrentFocus != "Algorithms" || next.UserLevel != domain.LevelAdvanced {
		t.Errorf("updated context = %+v", next)
	}
	if len(lc.PreviousQuestions) != 1 {
		t.Error("input context was modified")
	}

	kept := UpdateLearningContext(next, "what next?")
	if kept.Topic != "Algorithms" || kept.UserLevel != domain.LevelAdvanced {
		t.Errorf("unmatched text changed topic/level: %+v", kept)
	}
}

func TestSocraticPrompt(t *testing.T) {
	opening := Socratic.BuildPrompt(nil, "teach me recursion", nil)
	for _, want := range []string{
		"You are a Socratic teacher.",
		"CORE PRINCIPLES:",
		`USER MESSAGE: "teach me recursion"`,
		"This appears to be the start of a learning conversation.",
	} {
		if !strings.Contains(opening, want) {
			t.Errorf("opening prompt missing %q", want)
		}
	}
	if strings.Contains(opening, "LEARNING CONTEXT:") || strings.Contains(opening, "CONVERSATION SO FAR:") {
		t.Error("opening prompt has context or history blocks")
	}

	history := []domain.Message{
		{Content: "teach me recursion", IsUser: true},
		{Content: "What do you know already?"},
	}
	lc := &domain.LearningContext{
		Topic:             "Algorithms",
		UserLevel:         domain.LevelBeginner,
		PreviousQuestions: []string{"a", "b"},
		UserInsights:      []string{"c"},
		CurrentFocus:      "Algorithms",
	}
	prompt := Socratic.BuildPrompt(history, "a function that calls itself", lc)
	for _, want := range []string{
		"CONVERSATION SO FAR:\nUSER: teach me recursion\nASSISTANT: What do you know already?",
		"LEARNING CONTEXT:",
		"- Previous Questions Asked: a, b",
		"- User Insights So Far: c",
		"Build on this context to ask your next guiding question.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "start of a learning conversation") {
		t.Error("prompt with context still has the opening block")
	}
}

func TestFeynmanPrompt(t *testing.T) {
	prompt := Feynman.BuildPrompt([]domain.Message{{Content: "hi", IsUser: true}}, "entropy is disorder", nil)
	for _, want := range []string{
		"You are acting as a Feynman Technique coach.",
		"1. Do NOT explain the concept for them.",
		"5. Keep them doing the explaining — only guide them with questions.\n",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("framing missing %q", want)
		}
	}
	if !strings.HasSuffix(prompt, "Conversation so far:\nUSER: hi\n\nUser just said: \"entropy is disorder\"\n\nYour response:\n") {
		t.Errorf("unexpected prompt tail:\n%s", prompt)
	}
}

func TestLookupPersona(t *testing.T) {
	if p, ok := LookupPersona(domain.PersonaSocratic); !ok || !p.TracksLearning {
		t.Error("socratic persona lookup failed")
	}
	if p, ok := LookupPersona(domain.PersonaFeynman); !ok || p.TracksLearning {
		t.Error("feynman persona lookup failed")
	}
	if _, ok := LookupPersona("plato"); ok {
		t.Error("unknown persona resolved")
	}
}
