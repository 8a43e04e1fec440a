package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playground-ai/internal/api"
	"playground-ai/internal/config"
	"playground-ai/internal/gateway"
	"playground-ai/internal/identity"
	"playground-ai/internal/messaging"
	"playground-ai/internal/quotes"
	"playground-ai/internal/state"
	"playground-ai/internal/storage"
	"playground-ai/internal/workspace"
	"playground-ai/internal/youtube"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

type unavailableQuotes struct{}

func (unavailableQuotes) GenerateQuote(ctx context.Context, systemPrompt, prompt string) (string, error) {
	return "", errors.New("quote generation is not configured")
}

// Server wires the HTTP surface shared by the api and local binaries.
type Server struct {
	DB        *gorm.DB
	Blobs     storage.Provider
	Publisher messaging.Publisher
	Config    *config.Config
}

func (s Server) Handler() http.Handler {
	cfg := s.Config
	logger := slog.Default()

	openAI := gateway.NewOpenAI(gateway.OpenAIConfig{
		APIKey:     cfg.OpenAIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		ImageModel: cfg.ImageModel,
	}, logger)

	whisper := gateway.NewWhisper(gateway.WhisperConfig{
		APIKey:  cfg.OpenAIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.TranscriptionModel,
	}, logger)

	var quoteGen quotes.Generator = unavailableQuotes{}
	if quoteLLM, err := gateway.NewQuoteLLM(gateway.QuoteLLMConfig{
		APIKey:  cfg.OpenAIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.QuoteModel,
	}, logger); err != nil {
		slog.Warn("quote generation unavailable, serving fallback quotes", "error", err)
	} else {
		quoteGen = quoteLLM
	}

	deps := workspace.Dependencies{
		Completion:  openAI,
		Images:      openAI,
		Transcriber: whisper,
		Quotes:      quoteGen,
		State:       state.NewDBStore(s.DB),
		Publisher:   s.Publisher,
		Blobs:       s.Blobs,
		Bucket:      cfg.UploadBucket,
		ChatModel:   cfg.ChatModel,
		Logger:      logger,
	}
	workspaces := workspace.NewCache(cfg.WorkspaceCacheSize, func(userId string) *workspace.Workspace {
		return workspace.New(userId, deps)
	})

	auth, err := identity.NewAuthenticator(cfg.JWTPublicKey, logger)
	if err != nil {
		log.Fatalf("Failed to create authenticator: %v", err)
	}
	if cfg.JWTPublicKey == "" {
		slog.Warn("JWT_PUBLIC_KEY not set, trusting the X-User-Id header")
	}

	videos := youtube.NewClient(youtube.Config{APIKey: cfg.YouTubeAPIKey, BaseURL: cfg.YouTubeBaseURL}, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(gateway.Collectors()...)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(3 * time.Minute))

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	if cfg.ClerkWebhookSecret != "" {
		webhook, err := identity.NewWebhookHandler(cfg.ClerkWebhookSecret, s.DB,
			identity.WithBlobStore(s.Blobs, cfg.UploadBucket),
			identity.OnUserDeleted(workspaces.Evict),
			identity.WithWebhookLogger(logger),
		)
		if err != nil {
			log.Fatalf("Failed to create webhook handler: %v", err)
		}
		r.Method(http.MethodPost, "/api/webhooks/clerk", webhook)
	} else {
		slog.Warn("CLERK_WEBHOOK_SECRET not set, user profile sync is disabled")
	}

	service := api.NewPlaygroundService(s.DB, workspaces, openAI, whisper, videos, s.Blobs, cfg.UploadBucket)
	r.Route("/api/v1", func(r chi.Router) {
		service.AddRoutes(r, auth.Middleware)
	})

	return r
}

// ListenAndServe runs server until SIGINT or SIGTERM, then shuts it down
// gracefully and calls onShutdown.
func ListenAndServe(server *http.Server, onShutdown func()) {
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
		if onShutdown != nil {
			onShutdown()
		}
	}()

	log.Printf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", server.Addr, err)
	}

	log.Println("Server stopped.")
}
