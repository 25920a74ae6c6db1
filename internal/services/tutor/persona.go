// File: internal/services/tutor/persona.go
package tutor

import (
	"strings"

	"github.com/iyunix/go-sage/internal/domain"
)

// Persona is a fixed tutoring style: its prompt framing and canned replies.
type Persona struct {
	Name domain.Persona

	// FallbackText replaces the reply when the generation call fails.
	FallbackText string
	// EmptyReplyText replaces a reply that came back without text.
	EmptyReplyText string

	// TracksLearning enables the per-chat learning context.
	TracksLearning bool

	buildPrompt func(history []domain.Message, input string, lc *domain.LearningContext) string
}

// BuildPrompt assembles the full prompt for input given the messages that
// came before it.
func (p Persona) BuildPrompt(history []domain.Message, input string, lc *domain.LearningContext) string {
	return p.buildPrompt(history, input, lc)
}

var (
	Socratic = Persona{
		Name:           domain.PersonaSocratic,
		FallbackText:   "I'm having trouble connecting right now. While we wait, what do you think might be a good starting point for exploring this topic?",
		EmptyReplyText: "Let me think about how to guide you through this. What's your initial understanding of this topic?",
		TracksLearning: true,
		buildPrompt:    socraticPrompt,
	}

	Feynman = Persona{
		Name:           domain.PersonaFeynman,
		FallbackText:   "⚠️ Error: Failed to get a response.",
		EmptyReplyText: "⚠️ Error: Failed to get a response.",
		buildPrompt:    feynmanPrompt,
	}
)

func LookupPersona(name domain.Persona) (Persona, bool) {
	switch name {
	case domain.PersonaSocratic:
		return Socratic, true
	case domain.PersonaFeynman:
		return Feynman, true
	default:
		return Persona{}, false
	}
}

const socraticFraming = `You are a Socratic teacher. Your role is to guide learning through thoughtful questions, not to give direct answers.

CORE PRINCIPLES:
1. Ask probing questions that lead students to discover answers themselves
2. Build on their existing knowledge and responses
3. Encourage critical thinking and self-reflection
4. Be patient and supportive
5. Help them make connections between concepts

TECHNIQUES TO USE:
- Ask "What do you think happens when...?"
- "How might this relate to something you already know?"
- "What patterns do you notice?"
- "What would happen if we changed X?"
- "Can you think of an example where...?"
- "What's your reasoning behind that?"

AVOID:
- Giving direct answers immediately
- Lecturing or explaining everything
- Being condescending
- Moving too fast without checking understanding
`

const socraticOpening = `
This appears to be the start of a learning conversation. First, try to understand:
1. What they want to learn
2. What they already know about the topic
3. Why they're interested in learning this

Then guide them with questions that will help them explore the topic systematically.`

func socraticPrompt(history []domain.Message, input string, lc *domain.LearningContext) string {
	var b strings.Builder
	b.WriteString(socraticFraming)

	if len(history) > 0 {
		b.WriteString("\nCONVERSATION SO FAR:\n")
		b.WriteString(RenderHistory(history))
		b.WriteString("\n")
	}

	b.WriteString("\nUSER MESSAGE: \"")
	b.WriteString(input)
	b.WriteString("\"\n")

	if lc == nil {
		b.WriteString(socraticOpening)
		return b.String()
	}

	b.WriteString("\nLEARNING CONTEXT:\n")
	b.WriteString("- Topic: " + lc.Topic + "\n")
	b.WriteString("- User Level: " + string(lc.UserLevel) + "\n")
	b.WriteString("- Previous Questions Asked: " + strings.Join(lc.PreviousQuestions, ", ") + "\n")
	b.WriteString("- User Insights So Far: " + strings.Join(lc.UserInsights, ", ") + "\n")
	b.WriteString("- Current Focus: " + lc.CurrentFocus + "\n")
	b.WriteString("\nBuild on this context to ask your next guiding question.")
	return b.String()
}

const feynmanFraming = `
You are acting as a Feynman Technique coach.
The student (user) is explaining a concept.
Your role:
1. Do NOT explain the concept for them.
2. Listen to their explanation and point out parts that are unclear, missing, or too complex.
3. Ask them to simplify, clarify, or give an example in their own words.
4. Use follow-up questions like: "Can you explain that more simply?" or "What does that mean in everyday terms?"
5. Keep them doing the explaining — only guide them with questions.
`

func feynmanPrompt(history []domain.Message, input string, _ *domain.LearningContext) string {
	var b strings.Builder
	b.WriteString(feynmanFraming)
	b.WriteString("\nConversation so far:\n")
	b.WriteString(RenderHistory(history))
	b.WriteString("\n\nUser just said: \"")
	b.WriteString(input)
	b.WriteString("\"\n\nYour response:\n")
	return b.String()
}

// RenderHistory renders messages as "ROLE: text" lines.
func RenderHistory(history []domain.Message) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, strings.ToUpper(m.Role())+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}
