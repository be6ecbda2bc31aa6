package services

import (
	"context"
	"fmt"
	"log"
	"strings"
)

const summarySystemPrompt = "You are an expert at summarizing educational content. Provide 3-4 key bullet points summarizing the most important information from the following transcript. Use a '-' for each bullet point."

const (
	summaryEmptyFallback = "Could not generate summary."
	summaryErrorFallback = "Sorry, there was an error generating the summary."
)

type SummaryService struct {
	llm ChatCompleter
}

func NewSummaryService(llm ChatCompleter) *SummaryService {
	return &SummaryService{llm: llm}
}

// Summarize returns bullet points over the caption text. It never fails
// outward: model errors degrade to a fixed apology string and an empty
// response to a fixed placeholder.
func (s *SummaryService) Summarize(ctx context.Context, caption string) string {
	userQuery := fmt.Sprintf("Transcript:\n\n%s", caption)

	text, err := s.llm.Complete(ctx, summarySystemPrompt, userQuery, false)
	if err != nil {
		log.Printf("summary generation failed: %v", err)
		return summaryErrorFallback
	}

	if strings.TrimSpace(text) == "" {
		return summaryEmptyFallback
	}
	return text
}
