package main

import (
	"context"
	stdlog "log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/pendohq/pendo-assistant/internal/agent"
	"github.com/pendohq/pendo-assistant/internal/attachments"
	chatHandler "github.com/pendohq/pendo-assistant/internal/chat/handler"
	chatRepo "github.com/pendohq/pendo-assistant/internal/chat/repo"
	"github.com/pendohq/pendo-assistant/internal/config"
	mwCors "github.com/pendohq/pendo-assistant/internal/httpserver/middleware/cors"
	mwLogger "github.com/pendohq/pendo-assistant/internal/httpserver/middleware/logger"
	"github.com/pendohq/pendo-assistant/internal/logger/handlers/slogpretty"
	"github.com/pendohq/pendo-assistant/internal/logger/sl"
	"github.com/pendohq/pendo-assistant/internal/ratelimit"
	"github.com/pendohq/pendo-assistant/internal/resume"
	resumeHandler "github.com/pendohq/pendo-assistant/internal/resume/handler"
	resumeRepo "github.com/pendohq/pendo-assistant/internal/resume/repo"
	"github.com/pendohq/pendo-assistant/internal/uploads"
	wsHandler "github.com/pendohq/pendo-assistant/internal/ws/handler"
	"github.com/pendohq/pendo-assistant/internal/ws/hub"
)

const (
	envLocal = "local"
	envDev   = "dev"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found, skipping...")
	}

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	log.Info("starting pendo-assistant", slog.String("env", cfg.Env))

	ctx := context.Background()

	db, err := chatRepo.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	var store resume.ObjectStore
	if cfg.S3.Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.S3.Region),
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
			),
		)
		if err != nil {
			log.Error("failed to load aws config", sl.Err(err))
			os.Exit(1)
		}

		s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			}
			o.UsePathStyle = true
		})

		store = uploads.NewStorage(cfg.S3.Bucket, s3Client, s3.NewPresignClient(s3Client))
	} else {
		log.Warn("S3_BUCKET not set, raw resume files will not be stored")
	}

	resumes := resume.NewProcessor(resumeRepo.New(db), store, cfg.Resume.ChunkSize, log)
	files := attachments.NewProcessor(resumes, log)
	llm := agent.New(cfg.LLM)

	h := hub.NewHub()
	go h.Run()

	ch := chatHandler.New(llm, files, chatRepo.New(db), h, log)
	rh := resumeHandler.New(resumes, log)

	limiter := ratelimit.New(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(mwCors.New())

	router.Get("/health", ch.Health())
	router.Get("/ws", wsHandler.WSHandler(h, log))

	router.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(limiter, log))

		r.Post("/api/pendo-agent", ch.PendoAgent())
		r.Get("/api/conversations", ch.GetConversations())
		r.Get("/api/conversations/{conversationId}/messages", ch.GetMessages())

		r.Get("/api/resume/check/{userId}", rh.Check())
		r.Get("/api/resume/download/{userId}", rh.Download())
		r.Get("/api/resume/search", rh.Search())
	})

	log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))

	// WriteTimeout stays unset: the agent endpoint streams for longer than
	// any sane fixed write deadline.
	srv := &http.Server{
		Addr:        cfg.HTTPServer.Address,
		Handler:     router,
		ReadTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout: cfg.HTTPServer.IdleTimeout,
	}

	if err := srv.ListenAndServe(); err != nil {
		log.Error("failed to start server", sl.Err(err))
	}

	log.Error("server stopped")
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return setupPrettySlog()
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
