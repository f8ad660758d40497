package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"orderdesk/internal/metrics"
	"orderdesk/internal/repository/submission"
	"orderdesk/internal/service/workflow"
)

// SessionStore hands out workflow sessions by id.
type SessionStore interface {
	Create(token string) *workflow.Session
	Get(id string) (*workflow.Session, error)
	Close(id string) error
	// Len and CloseAll serve readiness and shutdown.
	Len() int
	CloseAll()
}

// JournalReader lists journaled submissions.
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]submission.Record, error)
	BySession(ctx context.Context, sessionID string) ([]submission.Record, error)
}

// Deps are the collaborators of the router. Journal and Metrics are optional.
type Deps struct {
	Sessions    SessionStore
	Journal     JournalReader
	Metrics     *metrics.Metrics
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.Sessions == nil {
		return nil, errors.New("session store required")
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db, deps.Sessions))

	h := &handlers{sessions: deps.Sessions, journal: deps.Journal}
	api := router.Group("/api")
	api.POST("/sessions", h.createSession)
	api.GET("/submissions", h.listSubmissions)

	sess := api.Group("/sessions/:sid", sessionMiddleware(deps.Sessions))
	sess.DELETE("", h.closeSession)
	sess.PUT("/token", h.setToken)
	sess.GET("/lookups/:kind", h.lookup)
	sess.POST("/lookups/:kind/more", h.loadMore)
	sess.GET("/draft", h.draft)
	sess.DELETE("/draft", h.resetDraft)
	sess.POST("/draft/items", h.addItem)
	sess.PATCH("/draft/items/:itemId", h.setQuantity)
	sess.DELETE("/draft/items/:itemId", h.removeItem)
	sess.PUT("/draft/:kind", h.selectEntity)
	sess.DELETE("/draft/:kind", h.clearEntity)
	sess.POST("/submit", h.submit)
	sess.GET("/submissions", h.sessionSubmissions)

	return router, nil
}
