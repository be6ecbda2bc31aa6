package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"eduvid/internal/domain"
)

const quizQuestionCount = 4

const quizSystemPrompt = "You are an expert quiz creator for educational content. Based on the provided transcript, " +
	"generate a JSON object representing a quiz. The quiz must have exactly 4 multiple-choice questions. " +
	"Each question object inside the 'questions' array must have the following properties: " +
	"'id' (a unique number), 'text' (the question string), 'options' (an array of 4 unique strings: " +
	"one correct answer and three plausible distractors), and 'answer' (the string of the correct answer, " +
	"which must also be present in the 'options' array). Do not output any text, markdown, or code outside of the single JSON object."

// ErrQuizSchemaInvalid marks a model response that parsed as JSON but broke
// the quiz contract. Internal only; callers of Generate never see it.
var ErrQuizSchemaInvalid = errors.New("quiz response violates the expected schema")

type QuizService struct {
	llm ChatCompleter
}

func NewQuizService(llm ChatCompleter) *QuizService {
	return &QuizService{llm: llm}
}

// Generate asks the model for a quiz over the caption text. It always
// returns a usable quiz: on any failure the quiz comes back unpopulated
// rather than erroring, and the failure is only logged.
func (s *QuizService) Generate(ctx context.Context, caption, videoID string) domain.Quiz {
	quiz := domain.Quiz{
		ID:        "quiz_" + shortID(),
		VideoID:   videoID,
		Questions: []domain.Question{},
	}

	userQuery := fmt.Sprintf("Here is the transcript:\n\n---\n%s\n---", caption)

	raw, err := s.llm.Complete(ctx, quizSystemPrompt, userQuery, true)
	if err != nil {
		log.Printf("quiz generation failed for video %s: %v", videoID, err)
		return quiz
	}

	questions, err := parseQuizQuestions(raw)
	if err != nil {
		log.Printf("quiz response rejected for video %s: %v", videoID, err)
		return quiz
	}

	quiz.Questions = questions
	return quiz
}

// parseQuizQuestions validates the model output against the quiz contract:
// exactly 4 questions, unique ids, 4 pairwise-distinct options each, and an
// answer that is one of the options. A response with the wrong question
// count is rejected outright, never truncated or padded.
func parseQuizQuestions(raw string) ([]domain.Question, error) {
	var payload struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parse quiz json: %w", err)
	}

	if len(payload.Questions) != quizQuestionCount {
		return nil, fmt.Errorf("%w: expected %d questions, got %d", ErrQuizSchemaInvalid, quizQuestionCount, len(payload.Questions))
	}

	seenIDs := map[int]struct{}{}
	for _, q := range payload.Questions {
		if _, dup := seenIDs[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %d", ErrQuizSchemaInvalid, q.ID)
		}
		seenIDs[q.ID] = struct{}{}

		if q.Text == "" {
			return nil, fmt.Errorf("%w: question %d has no text", ErrQuizSchemaInvalid, q.ID)
		}

		if len(q.Options) != quizQuestionCount {
			return nil, fmt.Errorf("%w: question %d has %d options", ErrQuizSchemaInvalid, q.ID, len(q.Options))
		}

		seenOptions := map[string]struct{}{}
		answerPresent := false
		for _, opt := range q.Options {
			if _, dup := seenOptions[opt]; dup {
				return nil, fmt.Errorf("%w: question %d has duplicate option %q", ErrQuizSchemaInvalid, q.ID, opt)
			}
			seenOptions[opt] = struct{}{}
			if opt == q.Answer {
				answerPresent = true
			}
		}
		if !answerPresent {
			return nil, fmt.Errorf("%w: question %d answer not among options", ErrQuizSchemaInvalid, q.ID)
		}
	}

	return payload.Questions, nil
}

// ScoreQuiz compares submitted answers, keyed by question id, against the
// quiz answer key. Matching is exact string equality: no trimming, no case
// folding. A missing submission counts as incorrect. An empty quiz scores
// zero percent rather than dividing by zero.
func ScoreQuiz(quiz domain.Quiz, answers map[string]string) domain.ScoreResult {
	correct := 0
	for _, q := range quiz.Questions {
		if answers[strconv.Itoa(q.ID)] == q.Answer {
			correct++
		}
	}

	total := len(quiz.Questions)
	percentage := 0.0
	if total > 0 {
		percentage = float64(correct) / float64(total) * 100
	}

	return domain.ScoreResult{
		Correct:    correct,
		Total:      total,
		Percentage: percentage,
		Passed:     percentage >= 70,
	}
}
