package httpserver

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Server is the order desk API. It owns the live workflow sessions for as
// long as it serves them.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	sessions   SessionStore
}

// New builds a Server. db may be nil when the submission journal is disabled.
func New(addr string, logger *log.Logger, db *pgxpool.Pool, deps Deps) (*Server, error) {
	router, err := buildRouter(logger, db, deps)
	if err != nil {
		return nil, err
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger:   logger,
		sessions: deps.Sessions,
	}, nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones, then closes
// every session so pending loyalty lookups stop and credentials are dropped.
// Sessions are closed even when the drain times out.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if n := s.sessions.Len(); n > 0 {
		s.logger.Printf("closing %d open sessions", n)
	}
	s.sessions.CloseAll()
	return err
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readyHandler reports the journal state and the number of open sessions.
// Only an unreachable journal makes the service unready.
func readyHandler(db *pgxpool.Pool, sessions SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"status": "ready", "journal": "disabled", "sessions": sessions.Len()}
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "journal db not reachable"})
				return
			}
			body["journal"] = "enabled"
		}
		c.JSON(http.StatusOK, body)
	}
}
