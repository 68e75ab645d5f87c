// Package feedback produces the per-answer coaching tip. The call is
// strictly best-effort: any failure means the candidate simply sees no tip.
package feedback

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/krishbhagirath/smart-interviewer/internal/llm"
)

// Coach asks the LLM for a short coaching tip on a single answer.
type Coach struct {
	llm    llm.Client
	logger *log.Logger
}

// NewCoach creates a coach over the given LLM client.
func NewCoach(client llm.Client, logger *log.Logger) *Coach {
	return &Coach{llm: client, logger: logger}
}

// QuickTip returns concise feedback for one question/answer pair, or an
// empty string when the model had nothing usable to say.
func (c *Coach) QuickTip(ctx context.Context, questionText, answerText string) (string, error) {
	if answerText == "" {
		answerText = "(No response provided)"
	}

	parts := []string{
		"You are an interview coach giving real-time feedback.",
		fmt.Sprintf("Question: %q", questionText),
		fmt.Sprintf("Candidate Answer: %q", answerText),
		"Task: Provide extremely concise feedback.\n" +
			"1. One sentence observation on the content.\n" +
			"2. One specific, actionable tip for improvement.\n" +
			"Keep the total response under 50 words. Be direct and encouraging.",
	}

	tip, err := c.llm.Generate(ctx, parts)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("feedback: tip generation failed: %v", err)
		}
		return "", err
	}
	return strings.TrimSpace(tip), nil
}
