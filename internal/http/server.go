package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/vedthemaster/lexsy-backend/internal/config"
	"github.com/vedthemaster/lexsy-backend/internal/conversation"
	"github.com/vedthemaster/lexsy-backend/internal/generate"
	"github.com/vedthemaster/lexsy-backend/internal/llm"
	"github.com/vedthemaster/lexsy-backend/internal/logging"
	"github.com/vedthemaster/lexsy-backend/internal/parse"
	"github.com/vedthemaster/lexsy-backend/internal/services"
	"github.com/vedthemaster/lexsy-backend/internal/storage"
)

type Server struct {
	engine *gin.Engine
	cfg    config.Config
}

func NewServer(cfg config.Config, log *logging.Logger) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	fm, err := storage.NewFileManager(cfg.DataDir, cfg.MaxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("init file manager: %w", err)
	}

	store, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	completer := llm.NewOpenAIClient(cfg)
	parser := parse.NewParser(completer, log)
	templater := parse.NewTemplater(log)
	convEngine := conversation.NewEngine(store, completer, log)
	generator := generate.NewGenerator(log)
	pdfSvc := services.NewPDFService()
	shareSvc := services.NewShareService(cfg)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(log))
	engine.Use(MaxBodySize(cfg.MaxUploadBytes))
	engine.Use(CORS())

	api := NewAPI(cfg, fm, store, parser, templater, convEngine, generator, pdfSvc, shareSvc, log)
	registerRoutes(engine, api)

	return &Server{engine: engine, cfg: cfg}, nil
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	return s.engine.Run(addr)
}
