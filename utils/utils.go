package utils

import (
	"fmt"
	rndm "math/rand"
	"strings"
	"time"
)

// --- Random String and ID Generators ---

var digitRunes = []rune("0123456789")

// GenerateRandomDigitString creates a random numeric string of length n.
func GenerateRandomDigitString(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = digitRunes[rndm.Intn(len(digitRunes))]
	}
	return string(b)
}

// NewID returns a fresh document id: millisecond timestamp plus a random
// suffix. Roughly monotonic, collision-improbable for a single-user tool.
func NewID() string {
	return fmt.Sprintf("%d%s", time.Now().UnixMilli(), GenerateRandomDigitString(4))
}

// Today returns the current date as an ISO string.
func Today() string {
	return time.Now().Format("2006-01-02")
}

// SplitTags takes a comma-separated string and returns a cleaned []string
func SplitTags(input string) []string {
	if input == "" {
		return []string{}
	}
	parts := strings.Split(input, ",")
	var tags []string
	seen := make(map[string]bool)

	for _, p := range parts {
		tag := strings.TrimSpace(p)
		if tag == "" {
			continue
		}
		tag = strings.ToLower(tag) // normalize
		if !seen[tag] {
			tags = append(tags, tag)
			seen[tag] = true
		}
	}
	return tags
}
