package utils

import (
	"fmt"
	"strings"
	"time"
)

// NewUniqueLink returns an unguessable interview link token of the form
// interview-<unix millis>-<32 hex chars>.
func NewUniqueLink(now time.Time) (string, error) {
	suffix, err := randomHex(16)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("interview-%d-%s", now.UnixMilli(), suffix), nil
}

// InterviewURL builds the candidate-facing URL for a link token.
func InterviewURL(baseURL, link string) string {
	return strings.TrimRight(baseURL, "/") + "/interview/" + link
}
