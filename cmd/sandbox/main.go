// Command sandbox serves an in-memory stand-in for the TableCRM API with demo data.
package main

import (
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"orderdesk/internal/sandbox"
)

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	token := flag.String("token", "demo-token", "accepted access token")
	flag.Parse()

	logger := log.New(os.Stdout, "[sandbox] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	sb := sandbox.New(*token, sandbox.Demo(), logger)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           sb.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Printf("serving TableCRM sandbox on %s/api/v1", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("sandbox: %v", err)
	}
}
