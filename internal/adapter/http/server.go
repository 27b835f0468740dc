package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/couchcryptid/disaster-watch-service/internal/observability"
	"github.com/couchcryptid/disaster-watch-service/internal/realtime"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether a dependency is ready to serve traffic.
type ReadinessChecker = sharedobs.ReadinessChecker

// readiness reports ready only when every dependency does.
type readiness []ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	var errs []error
	for _, checker := range r {
		if err := checker.CheckReadiness(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Deps are the services the API is built on. Chat, Images, Publisher and Hub
// may be nil; their endpoints then answer 503 or skip the optional step.
type Deps struct {
	Alerts      AlertStore
	Reports     ReportStore
	Surveys     SurveyStore
	Preferences PreferenceStore
	Articles    ArticleStore
	Stats       StatsSource
	Settings    SettingsStore
	Hazards     HazardFinder
	Damage      DamageService
	Chat        domain.ChatResponder
	Images      ImageUploader
	Publisher   AlertPublisher
	Hub         *realtime.Hub
	Ready       []ReadinessChecker

	JWTSecret           string
	RealtimeMinSeverity int
	Metrics             *observability.Metrics
}

// Server exposes the REST API, the alert socket, and the health, readiness
// and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	auth       *authenticator
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewServer creates the HTTP server with every route registered.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	router := gin.New()

	s := &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: router,
			// Chat replies can take as long as the upstream timeout.
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps: deps,
		auth: newAuthenticator(deps.JWTSecret),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}

	router.Use(recovery(logger), requestLogger(logger))
	s.routes(router)
	return s
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	r.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(readiness(s.deps.Ready))))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	optional := s.auth.optional()
	required := s.auth.required()

	r.GET("/ws/alerts", s.alertSocket)
	r.POST("/ai-chat", s.chat)
	r.POST("/analyze-damage", s.analyzeDamage)

	api := r.Group("/api", optional)
	{
		api.GET("/alerts", s.listAlerts)
		api.GET("/realtime-alerts", s.listRealtimeAlerts)
		api.GET("/hazards/nearby", s.nearbyHazards)

		api.POST("/victim-reports", s.createVictimReport)
		api.GET("/victim-reports", s.listVictimReports)
		api.POST("/incident-reports", s.createIncidentReport)
		api.GET("/incident-reports", s.listIncidentReports)

		api.POST("/surveys/satisfaction", s.createSatisfactionSurvey)
		api.POST("/surveys/booth", s.createBoothSurvey)

		api.POST("/damage-assessments", s.createDamageAssessment)
		api.GET("/damage-assessments/:id", s.getDamageAssessment)

		api.GET("/articles", s.listArticles)
		api.GET("/articles/:id", s.getArticle)

		api.GET("/stats", s.stats)
	}

	user := r.Group("/api", required)
	{
		user.GET("/preferences", s.getPreferences)
		user.PUT("/preferences", s.putPreferences)
		user.POST("/preferences/devices", s.addDevice)
		user.GET("/settings", s.getSettings)
		user.PUT("/settings", s.putSettings)
	}

	admin := r.Group("/api/admin", required, adminRequired())
	{
		admin.POST("/realtime-alerts", s.createRealtimeAlert)
		admin.POST("/articles", s.createArticle)
		admin.PUT("/articles/:id", s.updateArticle)
		admin.DELETE("/articles/:id", s.deleteArticle)
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
// Hijacked alert sockets are not tracked here; close the hub first so open
// sockets end and new upgrades are refused.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
