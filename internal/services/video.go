package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"eduvid/internal/domain"
)

const (
	titleMaxLen = 30
	tagMinLen   = 3

	// FallbackVideoURL is the sentinel artifact reference used when any
	// rendering stage fails. Generation degrades to it instead of erroring.
	FallbackVideoURL = "mock_video.mp4"
)

var ErrMissingInput = errors.New("prompt and user_id are required")

// VideoStore is the slice of the store the orchestrator needs: append a
// video and attach its quiz. Injected so tests run against isolated stores.
type VideoStore interface {
	AppendVideo(video domain.Video) error
	SetQuiz(videoID string, quiz domain.Quiz) error
}

// VideoService orchestrates a generation request: it derives the record
// fields from the prompt, runs the animation pipeline and quiz synthesis
// concurrently, and assembles the stored result. Pipeline failures degrade
// to the fallback artifact and are observable only in logs.
type VideoService struct {
	animation *AnimationService
	quiz      *QuizService
	store     VideoStore
}

func NewVideoService(animation *AnimationService, quiz *QuizService, store VideoStore) *VideoService {
	return &VideoService{animation: animation, quiz: quiz, store: store}
}

func (s *VideoService) Generate(ctx context.Context, prompt, userID string) (domain.Video, domain.Quiz, error) {
	if strings.TrimSpace(prompt) == "" || strings.TrimSpace(userID) == "" {
		return domain.Video{}, domain.Quiz{}, ErrMissingInput
	}

	videoID := "vid_" + shortID()
	title := deriveTitle(prompt)

	// Narration is a templated placeholder derived from the prompt, not
	// from the rendered footage. Quiz and summary run over this text.
	caption := fmt.Sprintf("This is a generated video about %s. The video explains the key concepts and provides detailed information on the topic.", prompt)

	var (
		videoURL = FallbackVideoURL
		quiz     domain.Quiz
	)

	// Rendering and quiz synthesis have no ordering dependency; run them
	// concurrently. Neither branch fails the request.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		path, err := s.animation.Generate(gctx, prompt)
		if err != nil {
			log.Printf("animation pipeline failed for video %s, using fallback: %v", videoID, err)
			return nil
		}
		videoURL = path
		return nil
	})
	g.Go(func() error {
		quiz = s.quiz.Generate(gctx, caption, videoID)
		return nil
	})
	_ = g.Wait()

	video := domain.Video{
		ID:           videoID,
		UserID:       userID,
		Title:        title,
		ThumbnailURL: thumbnailURL(title),
		VideoFileURL: videoURL,
		Caption:      caption,
		TopicTags:    deriveTags(prompt),
		CreatedAt:    time.Now().Format(time.RFC3339),
	}

	if err := s.store.AppendVideo(video); err != nil {
		return domain.Video{}, domain.Quiz{}, fmt.Errorf("store video: %w", err)
	}
	if err := s.store.SetQuiz(videoID, quiz); err != nil {
		return domain.Video{}, domain.Quiz{}, fmt.Errorf("store quiz: %w", err)
	}

	return video, quiz, nil
}

func deriveTitle(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= titleMaxLen {
		return prompt
	}
	return string(runes[:titleMaxLen]) + "..."
}

// deriveTags keeps the lowercase prompt tokens longer than three
// characters, in prompt order.
func deriveTags(prompt string) []string {
	tags := []string{}
	for _, token := range strings.Fields(strings.ToLower(prompt)) {
		if len(token) > tagMinLen {
			tags = append(tags, token)
		}
	}
	return tags
}

func thumbnailURL(title string) string {
	return fmt.Sprintf("https://placehold.co/600x400/1a202c/ffffff?text=%s", strings.ReplaceAll(title, " ", "+"))
}
