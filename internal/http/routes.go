package http

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"eduvid/internal/config"
	"eduvid/internal/domain"
	"eduvid/internal/services"
	"eduvid/internal/storage"
)

type API struct {
	cfg     config.Config
	store   *storage.Store
	media   *storage.MediaManager
	video   *services.VideoService
	quiz    *services.QuizService
	summary *services.SummaryService
	share   *services.ShareService
	sheet   *services.StudySheetService
}

func NewAPI(cfg config.Config, store *storage.Store, media *storage.MediaManager, video *services.VideoService, quiz *services.QuizService, summary *services.SummaryService, share *services.ShareService, sheet *services.StudySheetService) *API {
	return &API{cfg: cfg, store: store, media: media, video: video, quiz: quiz, summary: summary, share: share, sheet: sheet}
}

func registerRoutes(r *gin.Engine, api *API) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", api.handleHealth)
		apiGroup.POST("/login", api.handleLogin)

		apiGroup.POST("/videos/generate", api.handleGenerateVideo)
		apiGroup.GET("/videos/user/:user_id", api.handleListUserVideos)
		apiGroup.GET("/videos/search", api.handleSearchVideos)
		apiGroup.GET("/videos/:video_id", api.handleGetVideo)
		apiGroup.GET("/videos/:video_id/quiz", api.handleGetQuiz)
		apiGroup.GET("/videos/:video_id/summary", api.handleGetSummary)
		apiGroup.POST("/videos/:video_id/share", api.handleShareVideo)
		apiGroup.POST("/videos/:video_id/studysheet", api.handleStudySheet)

		apiGroup.POST("/quiz/:quiz_id/submit", api.handleSubmitQuiz)
	}

	r.GET("/media/videos/:filename", api.handleServeVideo)
	r.GET("/share/videos/:video_id", api.handleServeSharedVideo)
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) handleLogin(c *gin.Context) {
	var payload struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	user, err := a.store.FindUserByEmail(payload.Email)
	if err != nil || user.Password != payload.Password {
		respondMessage(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": user.ID,
		"name":    user.Name,
		"email":   user.Email,
	})
}

func (a *API) handleGenerateVideo(c *gin.Context) {
	var payload struct {
		Prompt string `json:"prompt"`
		UserID string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid payload")
		return
	}

	video, quiz, err := a.video.Generate(c.Request.Context(), payload.Prompt, payload.UserID)
	if err != nil {
		if errors.Is(err, services.ErrMissingInput) {
			respondMessage(c, http.StatusBadRequest, "Prompt and user_id are required")
			return
		}
		log.Printf("video generation failed: %v", err)
		respondMessage(c, http.StatusInternalServerError, "unable to save generated video")
		return
	}

	c.JSON(http.StatusOK, gin.H{"video": video, "quiz": quiz})
}

func (a *API) handleListUserVideos(c *gin.Context) {
	videos := a.store.ListVideosByUser(c.Param("user_id"))
	c.JSON(http.StatusOK, videos)
}

func (a *API) handleSearchVideos(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusOK, popularVideos())
		return
	}

	c.JSON(http.StatusOK, a.store.SearchVideos(query))
}

func (a *API) handleGetVideo(c *gin.Context) {
	video, err := a.store.GetVideo(c.Param("video_id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "Video not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"video": video})
}

// handleGetQuiz returns the stored quiz for a video, synthesizing and
// storing one on first access.
func (a *API) handleGetQuiz(c *gin.Context) {
	videoID := c.Param("video_id")

	if quiz, err := a.store.GetQuiz(videoID); err == nil {
		c.JSON(http.StatusOK, quiz)
		return
	}

	video, err := a.store.GetVideo(videoID)
	if err != nil {
		respondMessage(c, http.StatusNotFound, "Video not found")
		return
	}

	quiz := a.quiz.Generate(c.Request.Context(), video.Caption, videoID)
	if err := a.store.SetQuiz(videoID, quiz); err != nil {
		log.Printf("quiz save failed for video %s: %v", videoID, err)
		respondMessage(c, http.StatusInternalServerError, "unable to save quiz")
		return
	}

	c.JSON(http.StatusOK, quiz)
}

func (a *API) handleGetSummary(c *gin.Context) {
	video, err := a.store.GetVideo(c.Param("video_id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "Video not found")
		return
	}

	summary := a.summary.Summarize(c.Request.Context(), video.Caption)
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (a *API) handleSubmitQuiz(c *gin.Context) {
	var payload struct {
		Answers map[string]string `json:"answers"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid payload")
		return
	}

	quiz, err := a.store.GetQuizByID(c.Param("quiz_id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "Quiz not found")
		return
	}

	result := services.ScoreQuiz(quiz, payload.Answers)
	c.JSON(http.StatusOK, result)
}

func (a *API) handleShareVideo(c *gin.Context) {
	videoID := c.Param("video_id")
	video, err := a.store.GetVideo(videoID)
	if err != nil {
		respondMessage(c, http.StatusNotFound, "Video not found")
		return
	}

	if video.VideoFileURL == services.FallbackVideoURL {
		respondMessage(c, http.StatusBadRequest, "no rendered video available to share")
		return
	}

	url, expiresAt, err := a.share.Generate(videoID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "expiresAt": expiresAt.UTC()})
}

func (a *API) handleStudySheet(c *gin.Context) {
	videoID := c.Param("video_id")
	video, err := a.store.GetVideo(videoID)
	if err != nil {
		respondMessage(c, http.StatusNotFound, "Video not found")
		return
	}

	quiz, err := a.store.GetQuiz(videoID)
	if err != nil {
		quiz = a.quiz.Generate(c.Request.Context(), video.Caption, videoID)
		if err := a.store.SetQuiz(videoID, quiz); err != nil {
			log.Printf("quiz save failed for video %s: %v", videoID, err)
		}
	}

	summary := a.summary.Summarize(c.Request.Context(), video.Caption)

	sheetPath := a.media.SheetPath(videoID)
	if err := a.sheet.Generate(video, quiz, summary, sheetPath); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sheetPath": sheetPath})
}

func (a *API) handleServeVideo(c *gin.Context) {
	path, err := a.media.VideoPath(c.Param("filename"))
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid filename")
		return
	}

	if _, err := os.Stat(path); err != nil {
		respondMessage(c, http.StatusNotFound, "video not found")
		return
	}

	c.File(path)
}

func (a *API) handleServeSharedVideo(c *gin.Context) {
	videoID := c.Param("video_id")
	expiresParam := c.Query("exp")
	signature := c.Query("sig")

	if expiresParam == "" || signature == "" {
		respondMessage(c, http.StatusBadRequest, "missing signature")
		return
	}

	expires, err := strconv.ParseInt(expiresParam, 10, 64)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid expiration")
		return
	}

	if expires < time.Now().Unix() {
		respondMessage(c, http.StatusGone, "link expired")
		return
	}

	path := c.Request.URL.Path
	if !a.share.Validate(path, expires, signature) {
		respondMessage(c, http.StatusForbidden, "invalid signature")
		return
	}

	video, err := a.store.GetVideo(videoID)
	if err != nil {
		respondMessage(c, http.StatusNotFound, "Video not found")
		return
	}

	if _, err := os.Stat(video.VideoFileURL); err != nil {
		respondMessage(c, http.StatusNotFound, "video file not found")
		return
	}

	c.FileAttachment(video.VideoFileURL, filepath.Base(video.VideoFileURL))
}

func popularVideos() []domain.Video {
	now := time.Now().Format(time.RFC3339)
	return []domain.Video{
		{
			ID:           "vid003",
			UserID:       "user456",
			Title:        "Beginners Guide to Quantum Physics",
			ThumbnailURL: "https://placehold.co/600x400/3d4451/ffffff?text=Quantum+Physics",
			CreatedAt:    now,
		},
		{
			ID:           "vid004",
			UserID:       "user789",
			Title:        "Understanding Photosynthesis",
			ThumbnailURL: "https://placehold.co/600x400/3d4451/ffffff?text=Photosynthesis",
			CreatedAt:    now,
		},
	}
}

func respondError(c *gin.Context, status int, err error) {
	respondMessage(c, status, err.Error())
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
