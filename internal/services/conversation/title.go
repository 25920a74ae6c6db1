package conversation

const (
	MaxTitleLength = 50
	titleEllipsis  = "..."
)

// GenerateTitle returns text unchanged when it fits in MaxTitleLength runes,
// otherwise its first 47 runes followed by "...".
func GenerateTitle(text string) string {
	return truncateWithEllipsis(text, MaxTitleLength)
}

func truncateWithEllipsis(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-len(titleEllipsis)]) + titleEllipsis
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
