package tutor

import (
	"strings"

	"github.com/iyunix/go-sage/internal/domain"
)

// DefaultTopic is used when no topic keyword matches.
const DefaultTopic = "general inquiry"

// keywordRule maps any of its keywords to value. Rule tables are checked in
// order and the first match wins.
type keywordRule[T any] struct {
	keywords []string
	value    T
}

var topicRules = []keywordRule[string]{
	{keywords: []string{"javascript", "js"}, value: "JavaScript"},
	{keywords: []string{"react"}, value: "React"},
	{keywords: []string{"python"}, value: "Python"},
	{keywords: []string{"database"}, value: "Database Design"},
	{keywords: []string{"algorithm"}, value: "Algorithms"},
}

var levelRules = []keywordRule[domain.Level]{
	{keywords: []string{"advanced", "complex"}, value: domain.LevelAdvanced},
	{keywords: []string{"intermediate", "some experience"}, value: domain.LevelIntermediate},
}

var categoryRules = []keywordRule[domain.MessageCategory]{
	{keywords: []string{"excellent", "good thinking"}, value: domain.CategoryEncouragement},
	{keywords: []string{"reflect", "consider"}, value: domain.CategoryReflection},
	{keywords: []string{"try", "approach"}, value: domain.CategoryGuidance},
}

// matchRule lower-cases text before matching.
func matchRule[T any](text string, rules []keywordRule[T]) (T, bool) {
	return matchRuleExact(strings.ToLower(text), rules)
}

// matchRuleExact matches keywords against text as given.
func matchRuleExact[T any](text string, rules []keywordRule[T]) (T, bool) {
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.value, true
			}
		}
	}
	var zero T
	return zero, false
}

// DetectTopic reports the topic named in text, if any.
func DetectTopic(text string) (string, bool) {
	return matchRule(text, topicRules)
}

// DetectLevel reports the proficiency level text hints at, if any.
func DetectLevel(text string) (domain.Level, bool) {
	return matchRule(text, levelRules)
}

// ClassifyReply picks the display category of an assistant reply. Keywords
// match case-sensitively, so "Try" or "Consider" opening a sentence does not
// count.
func ClassifyReply(text string) domain.MessageCategory {
	if c, ok := matchRuleExact(text, categoryRules); ok {
		return c
	}
	return domain.CategoryQuestion
}
