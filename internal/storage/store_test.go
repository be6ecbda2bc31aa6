package storage

import (
	"errors"
	"testing"

	"eduvid/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestStoreSeedsDemoData(t *testing.T) {
	store := newTestStore(t)

	user, err := store.FindUserByEmail("alex.doe@example.com")
	if err != nil {
		t.Fatalf("seeded user missing: %v", err)
	}
	if user.ID != "user123" {
		t.Fatalf("unexpected seeded user %+v", user)
	}

	videos := store.ListVideosByUser("user123")
	if len(videos) != 2 {
		t.Fatalf("expected 2 seeded videos, got %d", len(videos))
	}
}

func TestAppendVideoRejectsDuplicate(t *testing.T) {
	store := newTestStore(t)

	video := domain.Video{ID: "vid_test", UserID: "u1", Title: "T"}
	if err := store.AppendVideo(video); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.AppendVideo(video); err == nil {
		t.Fatalf("expected duplicate append to fail")
	}
}

func TestAppendVideoSurvivesReload(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	video := domain.Video{ID: "vid_test", UserID: "u1", Title: "T", TopicTags: []string{"test"}}
	if err := store.AppendVideo(video); err != nil {
		t.Fatalf("append: %v", err)
	}

	reloaded, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}

	got, err := reloaded.GetVideo("vid_test")
	if err != nil {
		t.Fatalf("video lost on reload: %v", err)
	}
	if got.Title != "T" {
		t.Fatalf("unexpected video after reload: %+v", got)
	}
}

func TestSearchVideos(t *testing.T) {
	store := newTestStore(t)

	byTitle := store.SearchVideos("NEURAL")
	if len(byTitle) != 1 || byTitle[0].ID != "vid002" {
		t.Fatalf("title search failed: %+v", byTitle)
	}

	byTag := store.SearchVideos("exploration")
	if len(byTag) != 1 || byTag[0].ID != "vid001" {
		t.Fatalf("tag search failed: %+v", byTag)
	}

	if got := store.SearchVideos("zzz-no-match"); len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}

func TestQuizRoundTrip(t *testing.T) {
	store := newTestStore(t)

	quiz := domain.Quiz{ID: "quiz_abc", VideoID: "vid001", Questions: []domain.Question{}}
	if err := store.SetQuiz("vid001", quiz); err != nil {
		t.Fatalf("set quiz: %v", err)
	}

	byVideo, err := store.GetQuiz("vid001")
	if err != nil || byVideo.ID != "quiz_abc" {
		t.Fatalf("get by video failed: %v %+v", err, byVideo)
	}

	byID, err := store.GetQuizByID("quiz_abc")
	if err != nil || byID.VideoID != "vid001" {
		t.Fatalf("get by quiz id failed: %v %+v", err, byID)
	}

	if _, err := store.GetQuiz("vid999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMediaManagerRejectsTraversal(t *testing.T) {
	dir := t.TempDir()

	media, err := NewMediaManager(dir, dir)
	if err != nil {
		t.Fatalf("media manager: %v", err)
	}

	for _, name := range []string{"../meta.json", "a/b.mp4", ".hidden", ".."} {
		if _, err := media.VideoPath(name); err == nil {
			t.Fatalf("expected rejection for %q", name)
		}
	}

	if _, err := media.VideoPath("MainScene_abc.mp4"); err != nil {
		t.Fatalf("plain filename rejected: %v", err)
	}
}
