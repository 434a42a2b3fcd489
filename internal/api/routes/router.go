package routes

import (
	"net/http"

	"github.com/brewline/coffeedesk/backend/internal/api/handlers"
	"github.com/brewline/coffeedesk/backend/internal/api/middleware"
	"github.com/brewline/coffeedesk/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	feedbackHandler *handlers.FeedbackHandler
	messageHandler  *handlers.MessageHandler
	streamHandler   *handlers.StreamHandler
	templateHandler *handlers.TemplateHandler
	profileHandler  *handlers.ProfileHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	feedbackHandler *handlers.FeedbackHandler,
	messageHandler *handlers.MessageHandler,
	streamHandler *handlers.StreamHandler,
	templateHandler *handlers.TemplateHandler,
	profileHandler *handlers.ProfileHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		feedbackHandler: feedbackHandler,
		messageHandler:  messageHandler,
		streamHandler:   streamHandler,
		templateHandler: templateHandler,
		profileHandler:  profileHandler,
		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Feedback endpoints
	r.mux.HandleFunc("POST /api/feedback", r.feedbackHandler.SubmitFeedback)
	r.mux.HandleFunc("GET /api/feedback", r.feedbackHandler.ListFeedback)
	r.mux.HandleFunc("GET /api/feedback/stats", r.feedbackHandler.GetStats)

	// Messaging endpoints. The handler is absent when SMS credentials are
	// not configured; the rest of the API still serves.
	if r.messageHandler != nil {
		r.mux.HandleFunc("POST /api/messages/send", r.messageHandler.SendMessage)
		r.mux.HandleFunc("POST /api/messages/send-bulk", r.messageHandler.SendBulk)
		r.mux.HandleFunc("POST /api/messages/send-template", r.messageHandler.SendTemplate)
		r.mux.HandleFunc("GET /api/messages", r.messageHandler.GetHistory)
	}

	// Live delivery updates need the event bus, which is absent when Redis
	// is not available.
	if r.streamHandler != nil {
		r.mux.HandleFunc("GET /api/messages/stream", r.streamHandler.StreamMessages)
	}

	// Template endpoints
	r.mux.HandleFunc("POST /api/templates", r.templateHandler.CreateTemplate)
	r.mux.HandleFunc("GET /api/templates", r.templateHandler.ListTemplates)
	r.mux.HandleFunc("DELETE /api/templates/{id}", r.templateHandler.DeleteTemplate)

	// Profile endpoints
	r.mux.HandleFunc("GET /api/profiles/{id}", r.profileHandler.GetProfile)
	r.mux.HandleFunc("PUT /api/profiles/{id}", r.profileHandler.UpdateProfile)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
