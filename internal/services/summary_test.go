package services

import (
	"context"
	"errors"
	"testing"
)

func TestSummarizeReturnsModelText(t *testing.T) {
	svc := NewSummaryService(&fakeChat{response: "- point one\n- point two\n- point three"})

	summary := svc.Summarize(context.Background(), "caption")
	if summary != "- point one\n- point two\n- point three" {
		t.Fatalf("expected verbatim model text, got %q", summary)
	}
}

func TestSummarizeEmptyResponse(t *testing.T) {
	svc := NewSummaryService(&fakeChat{response: "  \n"})

	if got := svc.Summarize(context.Background(), "caption"); got != "Could not generate summary." {
		t.Fatalf("expected empty-response placeholder, got %q", got)
	}
}

func TestSummarizeErrorDegrades(t *testing.T) {
	svc := NewSummaryService(&fakeChat{err: errors.New("timeout")})

	if got := svc.Summarize(context.Background(), "caption"); got != "Sorry, there was an error generating the summary." {
		t.Fatalf("expected apology string, got %q", got)
	}
}
