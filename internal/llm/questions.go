package llm

import (
	"context"
	"errors"
	"strings"
)

const (
	questionSystemPrompt = "You are an assistant that generates interview questions."
	questionUserPrompt   = "Generate a list of interview questions based on the following prompt: "
)

// ErrEmptyPrompt is returned when no prompt text was supplied.
var ErrEmptyPrompt = errors.New("prompt is required")

// GenerateQuestions asks c for interview questions and returns one question
// per non-empty reply line.
func GenerateQuestions(ctx context.Context, c Client, prompt string) ([]string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	reply, err := c.Complete(ctx, questionSystemPrompt, questionUserPrompt+prompt)
	if err != nil {
		return nil, err
	}
	return SplitLines(reply), nil
}

// SplitLines splits text on newlines, trims each line and drops empty ones.
func SplitLines(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
