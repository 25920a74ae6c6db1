package tutor

import (
	"time"

	"github.com/iyunix/go-sage/internal/domain"
)

// UpdateLearningContext folds the user's latest text into lc and returns the
// result as a new value; lc itself is not modified. Topic and level change
// only when text names one. The text is pushed into both sliding windows.
func UpdateLearningContext(lc *domain.LearningContext, userText string) *domain.LearningContext {
	next := lc.Clone()
	if next == nil {
		next = &domain.LearningContext{
			Topic:     DefaultTopic,
			UserLevel: domain.LevelBeginner,
		}
		next.CurrentFocus = next.Topic
	}

	if topic, ok := DetectTopic(userText); ok {
		next.Topic = topic
		next.CurrentFocus = topic
	}
	if level, ok := DetectLevel(userText); ok {
		next.UserLevel = level
	}

	next.Record(userText)
	next.UpdatedAt = time.Now().UTC()
	return next
}
