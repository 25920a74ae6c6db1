// File: internal/domain/learning_context.go
package domain

import "time"

// Level is the learner's self-described proficiency.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

const (
	MaxPreviousQuestions = 5
	MaxUserInsights      = 10
)

// LearningContext is advisory metadata the Socratic persona keeps per chat.
// It is always saved and loaded as a whole.
type LearningContext struct {
	Topic             string    `json:"topic" firestore:"topic"`
	UserLevel         Level     `json:"userLevel" firestore:"userLevel"`
	PreviousQuestions []string  `json:"previousQuestions" firestore:"previousQuestions"`
	UserInsights      []string  `json:"userInsights" firestore:"userInsights"`
	CurrentFocus      string    `json:"currentFocus" firestore:"currentFocus"`
	UpdatedAt         time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// Record pushes text into both sliding windows, dropping the oldest entries
// once a window is full.
func (lc *LearningContext) Record(text string) {
	lc.PreviousQuestions = pushWindow(lc.PreviousQuestions, text, MaxPreviousQuestions)
	lc.UserInsights = pushWindow(lc.UserInsights, text, MaxUserInsights)
}

// Clone returns a deep copy, or nil for a nil receiver.
func (lc *LearningContext) Clone() *LearningContext {
	if lc == nil {
		return nil
	}
	out := *lc
	out.PreviousQuestions = append([]string(nil), lc.PreviousQuestions...)
	out.UserInsights = append([]string(nil), lc.UserInsights...)
	return &out
}

func pushWindow(window []string, item string, max int) []string {
	out := make([]string, 0, max)
	out = append(out, window...)
	out = append(out, item)
	if len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}
