package domain

type User struct {
	ID       string `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

type Video struct {
	ID           string   `json:"video_id"`
	UserID       string   `json:"user_id"`
	Title        string   `json:"title"`
	ThumbnailURL string   `json:"thumbnail_url"`
	VideoFileURL string   `json:"video_file_url"`
	Caption      string   `json:"caption_content"`
	TopicTags    []string `json:"topic_tags"`
	CreatedAt    string   `json:"created_at"`
}

type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

type Quiz struct {
	ID        string     `json:"quiz_id"`
	VideoID   string     `json:"video_id"`
	Questions []Question `json:"questions"`
}

// Populated reports whether quiz synthesis produced questions. A quiz is
// either unpopulated (empty questions) or carries the full question set.
func (q Quiz) Populated() bool {
	return len(q.Questions) > 0
}

type ScoreResult struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
}
