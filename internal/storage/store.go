package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"eduvid/internal/domain"
)

var ErrNotFound = errors.New("not found")

type metaData struct {
	Users   map[string]domain.User `json:"users"`
	Videos  []domain.Video         `json:"videos"`
	Quizzes map[string]domain.Quiz `json:"quizzes"`
}

// Store keeps users, the append-only video collection and the quiz-by-video
// map in a single JSON file, saved atomically on every mutation.
type Store struct {
	mu   sync.RWMutex
	path string
	data metaData
}

func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	store := &Store{path: filepath.Join(baseDir, "meta.json")}
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = metaData{
		Users:   map[string]domain.User{},
		Videos:  []domain.Video{},
		Quizzes: map[string]domain.Quiz{},
	}

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.seedLocked()
		return s.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("open meta file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&s.data); err != nil {
		if errors.Is(err, io.EOF) {
			s.seedLocked()
			return s.saveLocked()
		}
		return fmt.Errorf("decode meta file: %w", err)
	}

	s.ensureMaps()
	return nil
}

func (s *Store) FindUserByEmail(email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.data.Users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, fmt.Errorf("user %s: %w", email, ErrNotFound)
}

// AppendVideo adds a video to the collection. Videos are immutable once
// stored; a duplicate id is a caller bug, not an update.
func (s *Store) AppendVideo(video domain.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data.Videos {
		if existing.ID == video.ID {
			return fmt.Errorf("video %s already exists", video.ID)
		}
	}

	s.data.Videos = append(s.data.Videos, video)
	return s.saveLocked()
}

func (s *Store) GetVideo(id string) (domain.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, video := range s.data.Videos {
		if video.ID == id {
			return video, nil
		}
	}
	return domain.Video{}, fmt.Errorf("video %s: %w", id, ErrNotFound)
}

func (s *Store) ListVideosByUser(userID string) []domain.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()

	videos := make([]domain.Video, 0)
	for _, video := range s.data.Videos {
		if video.UserID == userID {
			videos = append(videos, video)
		}
	}
	return videos
}

// SearchVideos matches the lowercased query against titles, topic tags and
// caption text, preserving insertion order.
func (s *Store) SearchVideos(query string) []domain.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(query)
	videos := make([]domain.Video, 0)
	for _, video := range s.data.Videos {
		if videoMatches(video, query) {
			videos = append(videos, video)
		}
	}
	return videos
}

func videoMatches(video domain.Video, query string) bool {
	if strings.Contains(strings.ToLower(video.Title), query) {
		return true
	}
	for _, tag := range video.TopicTags {
		if strings.Contains(tag, query) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(video.Caption), query)
}

func (s *Store) SetQuiz(videoID string, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Quizzes[videoID] = quiz
	return s.saveLocked()
}

func (s *Store) GetQuiz(videoID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quiz, ok := s.data.Quizzes[videoID]
	if !ok {
		return domain.Quiz{}, fmt.Errorf("quiz for video %s: %w", videoID, ErrNotFound)
	}
	return quiz, nil
}

func (s *Store) GetQuizByID(quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, quiz := range s.data.Quizzes {
		if quiz.ID == quizID {
			return quiz, nil
		}
	}
	return domain.Quiz{}, fmt.Errorf("quiz %s: %w", quizID, ErrNotFound)
}

func (s *Store) saveLocked() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "meta-*.json")
	if err != nil {
		return fmt.Errorf("create temp meta: %w", err)
	}

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode meta: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp meta: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace meta file: %w", err)
	}

	return nil
}

func (s *Store) ensureMaps() {
	if s.data.Users == nil {
		s.data.Users = map[string]domain.User{}
	}
	if s.data.Videos == nil {
		s.data.Videos = []domain.Video{}
	}
	if s.data.Quizzes == nil {
		s.data.Quizzes = map[string]domain.Quiz{}
	}
}

// seedLocked populates a fresh store with the demo user and videos so the
// frontend has content before the first generation.
func (s *Store) seedLocked() {
	now := time.Now().Format(time.RFC3339)

	s.data.Users["user123"] = domain.User{
		ID:       "user123",
		Name:     "Alex Doe",
		Email:    "alex.doe@example.com",
		Password: "password123",
	}

	s.data.Videos = append(s.data.Videos,
		domain.Video{
			ID:           "vid001",
			UserID:       "user123",
			Title:        "The History of Space Exploration",
			ThumbnailURL: "https://placehold.co/600x400/1a202c/ffffff?text=Space+History",
			VideoFileURL: "media/videos/space_history.mp4",
			Caption:      "The history of space exploration spans centuries, beginning with early astronomical observations and culminating in crewed missions to the Moon and robotic exploration of the solar system.",
			TopicTags:    []string{"space", "exploration", "history"},
			CreatedAt:    now,
		},
		domain.Video{
			ID:           "vid002",
			UserID:       "user123",
			Title:        "Deep Dive into Neural Networks",
			ThumbnailURL: "https://placehold.co/600x400/1a202c/ffffff?text=AI+Deep+Dive",
			VideoFileURL: "media/videos/neural_networks.mp4",
			Caption:      "Neural networks are computing systems inspired by the human brain. They consist of interconnected nodes that process information and can learn to perform tasks by considering examples.",
			TopicTags:    []string{"ai", "neural networks", "machine learning"},
			CreatedAt:    now,
		},
	)
}
