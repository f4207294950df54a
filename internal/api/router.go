package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"github.com/toasahi/ramen-agent/internal/api/handler"
	customMiddleware "github.com/toasahi/ramen-agent/internal/api/middleware"
	"github.com/toasahi/ramen-agent/internal/config"
	"github.com/toasahi/ramen-agent/internal/mastra"
	"github.com/toasahi/ramen-agent/internal/places"
	"github.com/toasahi/ramen-agent/internal/repository/redis"
	"github.com/toasahi/ramen-agent/internal/request"
	"github.com/toasahi/ramen-agent/internal/session"
	"github.com/toasahi/ramen-agent/internal/summary"
	"github.com/toasahi/ramen-agent/internal/workflow"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	policy := request.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		Timeout:     cfg.Retry.Timeout,
	}

	// Remote service clients
	mastraClient := mastra.NewClient(cfg.Mastra, policy, log.Logger)
	placesClient := places.NewClient(cfg.Places, policy, log.Logger)

	// Conversation runtime
	manager := session.NewManager(mastraClient, mastraClient, mastraClient, log.Logger)

	// Recommendation pipeline; the Gemini summarizer is used when
	// configured, the deterministic formatter otherwise.
	var summarizer summary.Summarizer = summary.TextSummarizer{}
	if gemini := summary.NewGeminiSummarizer(cfg.Gemini); gemini.IsConfigured() {
		log.Info().Str("model", gemini.DefaultModel()).Msg("Registering Gemini summarizer")
		summarizer = gemini
	} else {
		log.Warn().Msg("Gemini API key is empty, using text summarizer")
	}
	ramenWorkflow := workflow.New(placesClient, summarizer, log.Logger)

	// Initialize handlers
	threadHandler := handler.NewThreadHandler(mastraClient)
	messageHandler := handler.NewMessageHandler(mastraClient)
	conversationHandler := handler.NewConversationHandler(manager)
	recommendHandler := handler.NewRecommendHandler(ramenWorkflow)

	// Rate limiting
	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.Security.RateLimit.RequestsPerMinute,
		cfg.Security.RateLimit.Burst,
	)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)

		r.Group(func(r chi.Router) {
			r.Use(rateLimitMiddleware.Limit)

			// Thread directory proxy
			r.Route("/memory/threads", func(r chi.Router) {
				r.Get("/", threadHandler.List)
				r.Post("/", threadHandler.Create)

				r.Route("/{threadID}", func(r chi.Router) {
					r.Get("/", threadHandler.Get)
					r.Patch("/", threadHandler.Update)
					r.Delete("/", threadHandler.Delete)
					r.Get("/messages", messageHandler.List)
				})
			})

			// Conversation runtime
			r.Route("/conversation", func(r chi.Router) {
				r.Post("/", conversationHandler.Create)

				r.Route("/{slotID}", func(r chi.Router) {
					r.Get("/", conversationHandler.Get)
					r.Post("/messages", conversationHandler.Send)
					r.Delete("/", conversationHandler.Delete)
				})
			})

			// Recommendation pipeline
			r.Post("/ramen/recommend", recommendHandler.Recommend)
		})
	})

	return r
}
