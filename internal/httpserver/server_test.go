package httpserver

import (
	"context"
	"testing"
	"time"

	"orderdesk/internal/service/sessions"
	"orderdesk/internal/service/workflow"
	"orderdesk/internal/tablecrm"
)

func TestServer_ShutdownClosesSessions(t *testing.T) {
	registry := sessions.NewRegistry(func(id string, creds *tablecrm.Credentials) *workflow.Session {
		return workflow.New(id, &stubRemote{}, creds, workflow.Deps{})
	}, time.Hour, nil, nil)

	srv, err := New("127.0.0.1:0", logDiscard(), nil, Deps{Sessions: registry})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	first := registry.Create("secret")
	second := registry.Create("other")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if n := registry.Len(); n != 0 {
		t.Fatalf("expected no sessions after shutdown, got %d", n)
	}
	if first.HasCredential() || second.HasCredential() {
		t.Fatalf("expected credentials to be cleared on shutdown")
	}
}

func TestNew_RequiresSessionStore(t *testing.T) {
	if _, err := New("127.0.0.1:0", logDiscard(), nil, Deps{}); err == nil {
		t.Fatalf("expected error without a session store")
	}
}
