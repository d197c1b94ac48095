package utils

func AssertInvariant(condition bool, message string) {
	if !condition {
		panic("invariant violated - " + message)
	}
}

// SplitMessage splits a reply into chunks that fit under the platform's
// message length limit. Discord caps messages at 2000 characters, counted
// in runes, so splits must land on rune boundaries.
const MaxMessageLength = 2000

func SplitMessage(message string) []string {
	if message == "" {
		return nil
	}

	runes := []rune(message)

	var parts []string
	for len(runes) > MaxMessageLength {
		parts = append(parts, string(runes[:MaxMessageLength]))
		runes = runes[MaxMessageLength:]
	}
	return append(parts, string(runes))
}
