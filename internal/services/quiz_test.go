package services

import (
	"context"
	"errors"
	"testing"

	"eduvid/internal/domain"
)

type fakeChat struct {
	response string
	jsonResp string
	err      error
}

func (f *fakeChat) Complete(ctx context.Context, system, user string, jsonOnly bool) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if jsonOnly && f.jsonResp != "" {
		return f.jsonResp, nil
	}
	return f.response, nil
}

const validQuizJSON = `{"questions":[
	{"id":1,"text":"Q1","options":["a","b","c","d"],"answer":"a"},
	{"id":2,"text":"Q2","options":["e","f","g","h"],"answer":"f"},
	{"id":3,"text":"Q3","options":["i","j","k","l"],"answer":"k"},
	{"id":4,"text":"Q4","options":["m","n","o","p"],"answer":"p"}
]}`

func TestQuizGenerateValid(t *testing.T) {
	svc := NewQuizService(&fakeChat{jsonResp: validQuizJSON})

	quiz := svc.Generate(context.Background(), "caption", "vid_test")

	if !quiz.Populated() {
		t.Fatalf("expected populated quiz")
	}
	if quiz.VideoID != "vid_test" {
		t.Fatalf("expected video id attached, got %q", quiz.VideoID)
	}
	if quiz.ID == "" {
		t.Fatalf("expected quiz id assigned")
	}
	if len(quiz.Questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(quiz.Questions))
	}

	for _, q := range quiz.Questions {
		if len(q.Options) != 4 {
			t.Fatalf("question %d has %d options", q.ID, len(q.Options))
		}
		found := false
		seen := map[string]bool{}
		for _, opt := range q.Options {
			if seen[opt] {
				t.Fatalf("question %d has duplicate option %q", q.ID, opt)
			}
			seen[opt] = true
			if opt == q.Answer {
				found = true
			}
		}
		if !found {
			t.Fatalf("question %d answer not among options", q.ID)
		}
	}
}

func TestQuizGenerateRejectsWrongCount(t *testing.T) {
	threeQuestions := `{"questions":[
		{"id":1,"text":"Q1","options":["a","b","c","d"],"answer":"a"},
		{"id":2,"text":"Q2","options":["e","f","g","h"],"answer":"f"},
		{"id":3,"text":"Q3","options":["i","j","k","l"],"answer":"k"}
	]}`

	quiz := NewQuizService(&fakeChat{jsonResp: threeQuestions}).Generate(context.Background(), "caption", "vid_test")
	if quiz.Populated() {
		t.Fatalf("expected unpopulated quiz for 3-question response, got %d questions", len(quiz.Questions))
	}
}

func TestQuizGenerateDegradations(t *testing.T) {
	cases := []struct {
		name string
		chat *fakeChat
	}{
		{"transport error", &fakeChat{err: errors.New("connection refused")}},
		{"invalid json", &fakeChat{jsonResp: "not json at all"}},
		{"answer not in options", &fakeChat{jsonResp: `{"questions":[
			{"id":1,"text":"Q1","options":["a","b","c","d"],"answer":"z"},
			{"id":2,"text":"Q2","options":["e","f","g","h"],"answer":"f"},
			{"id":3,"text":"Q3","options":["i","j","k","l"],"answer":"k"},
			{"id":4,"text":"Q4","options":["m","n","o","p"],"answer":"p"}]}`}},
		{"duplicate options", &fakeChat{jsonResp: `{"questions":[
			{"id":1,"text":"Q1","options":["a","a","c","d"],"answer":"a"},
			{"id":2,"text":"Q2","options":["e","f","g","h"],"answer":"f"},
			{"id":3,"text":"Q3","options":["i","j","k","l"],"answer":"k"},
			{"id":4,"text":"Q4","options":["m","n","o","p"],"answer":"p"}]}`}},
		{"duplicate ids", &fakeChat{jsonResp: `{"questions":[
			{"id":1,"text":"Q1","options":["a","b","c","d"],"answer":"a"},
			{"id":1,"text":"Q2","options":["e","f","g","h"],"answer":"f"},
			{"id":3,"text":"Q3","options":["i","j","k","l"],"answer":"k"},
			{"id":4,"text":"Q4","options":["m","n","o","p"],"answer":"p"}]}`}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quiz := NewQuizService(tc.chat).Generate(context.Background(), "caption", "vid_test")
			if quiz.Populated() {
				t.Fatalf("expected unpopulated quiz")
			}
			if quiz.ID == "" || quiz.VideoID != "vid_test" {
				t.Fatalf("fallback quiz must still carry ids, got %+v", quiz)
			}
			if quiz.Questions == nil {
				t.Fatalf("fallback quiz questions must be an empty slice, not nil")
			}
		})
	}
}

func TestScoreQuiz(t *testing.T) {
	quiz := domain.Quiz{
		Questions: []domain.Question{
			{ID: 1, Answer: "a"},
			{ID: 2, Answer: "b"},
			{ID: 3, Answer: "c"},
			{ID: 4, Answer: "d"},
		},
	}

	result := ScoreQuiz(quiz, map[string]string{"1": "a", "2": "b", "3": "c", "4": "wrong"})

	if result.Correct != 3 || result.Total != 4 {
		t.Fatalf("expected 3/4, got %d/%d", result.Correct, result.Total)
	}
	if result.Percentage != 75.0 {
		t.Fatalf("expected 75.0, got %v", result.Percentage)
	}
	if !result.Passed {
		t.Fatalf("expected passed at 75%%")
	}
}

func TestScoreQuizMissingAnswerIsIncorrect(t *testing.T) {
	quiz := domain.Quiz{
		Questions: []domain.Question{
			{ID: 1, Answer: "a"},
			{ID: 2, Answer: "b"},
		},
	}

	result := ScoreQuiz(quiz, map[string]string{"1": "a"})
	if result.Correct != 1 || result.Total != 2 {
		t.Fatalf("expected 1/2, got %d/%d", result.Correct, result.Total)
	}
	if result.Passed {
		t.Fatalf("expected not passed at 50%%")
	}
}

func TestScoreQuizExactMatchOnly(t *testing.T) {
	quiz := domain.Quiz{Questions: []domain.Question{{ID: 1, Answer: "Paris"}}}

	if got := ScoreQuiz(quiz, map[string]string{"1": "paris"}); got.Correct != 0 {
		t.Fatalf("case-insensitive match must not count, got %d", got.Correct)
	}
	if got := ScoreQuiz(quiz, map[string]string{"1": " Paris"}); got.Correct != 0 {
		t.Fatalf("untrimmed match must not count, got %d", got.Correct)
	}
}

func TestScoreQuizEmpty(t *testing.T) {
	result := ScoreQuiz(domain.Quiz{Questions: []domain.Question{}}, map[string]string{})
	if result.Total != 0 || result.Percentage != 0 {
		t.Fatalf("expected zero score for empty quiz, got %+v", result)
	}
	if result.Passed {
		t.Fatalf("empty quiz must not pass")
	}
}
