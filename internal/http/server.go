package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"eduvid/internal/config"
	"eduvid/internal/services"
	"eduvid/internal/storage"
)

type Server struct {
	engine *gin.Engine
	cfg    config.Config
}

func NewServer(cfg config.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	store, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	media, err := storage.NewMediaManager(cfg.MediaDir, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init media manager: %w", err)
	}

	llm := services.NewLLMService(cfg)
	renderer := services.NewManimRenderer(cfg)
	animationSvc := services.NewAnimationService(llm, cfg.AnimationPrompt, renderer)
	quizSvc := services.NewQuizService(llm)
	summarySvc := services.NewSummaryService(llm)
	videoSvc := services.NewVideoService(animationSvc, quizSvc, store)
	shareSvc := services.NewShareService(cfg)
	sheetSvc := services.NewStudySheetService()

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger())
	engine.Use(MaxBodySize(cfg.MaxBodyBytes))
	engine.Use(CORS())

	api := NewAPI(cfg, store, media, videoSvc, quizSvc, summarySvc, shareSvc, sheetSvc)
	registerRoutes(engine, api)

	return &Server{engine: engine, cfg: cfg}, nil
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	return s.engine.Run(addr)
}
