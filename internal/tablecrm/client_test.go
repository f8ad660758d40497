package tablecrm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/domain"
)

func newTestTransport(t *testing.T, handler http.HandlerFunc, token string) (*Transport, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, Options{Timeout: time.Second, FailureThreshold: 2, OpenTimeout: time.Minute}, nil)
	return client.Bind(NewCredentials(token)), srv
}

func TestTransport_GetAttachesTokenAndParams(t *testing.T) {
	var got url.Values
	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contragents/", r.URL.Path)
		got = r.URL.Query()
		_, _ = io.WriteString(w, `{"result":[],"count":0}`)
	}, "secret")

	raw, err := tr.Get(context.Background(), PathContragents, url.Values{"limit": {"100"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":[],"count":0}`, string(raw))
	assert.Equal(t, "secret", got.Get("token"))
	assert.Equal(t, "100", got.Get("limit"))
}

func TestTransport_NoCredentialSkipsNetwork(t *testing.T) {
	var calls int32
	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, "")

	_, err := tr.Get(context.Background(), PathWarehouses, nil)
	require.ErrorIs(t, err, domain.ErrNoCredential)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestTransport_PostSendsJSON(t *testing.T) {
	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body, 1)
		_, _ = io.WriteString(w, `[{"id": 5}]`)
	}, "secret")

	raw, err := tr.Post(context.Background(), PathDocsSales, []map[string]any{{"status": false}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":5}]`, string(raw))
}

func TestTransport_RemoteErrorCarriesMessage(t *testing.T) {
	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"warehouse is archived"}`)
	}, "secret")

	_, err := tr.Post(context.Background(), PathDocsSales, []int{})
	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, http.StatusBadRequest, remoteErr.Status)
	assert.Equal(t, "warehouse is archived", remoteErr.Message)
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

func TestTransport_DetailFallback(t *testing.T) {
	assert.Equal(t, "Not authenticated", errorMessage([]byte(`{"detail":"Not authenticated"}`)))
	assert.Equal(t, "", errorMessage([]byte(`{"detail":[{"loc":["body"]}]}`)))
	assert.Equal(t, "", errorMessage([]byte(`<html>`)))
}

func TestTransport_BreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}, "secret")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := tr.Get(ctx, PathPriceTypes, nil)
		require.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	}
	_, err := tr.Get(ctx, PathPriceTypes, nil)
	require.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTransport_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls int32
	tr, _ := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}, "secret")

	for i := 0; i < 4; i++ {
		_, _ = tr.Post(context.Background(), PathDocsSales, []int{})
	}
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestTransport_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	tr := NewClient(srv.URL, Options{Timeout: time.Second}, nil).Bind(NewCredentials("secret"))

	_, err := tr.Get(context.Background(), PathContragents, nil)
	require.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.NotContains(t, err.Error(), "secret")
}

func TestCredentials_Lifecycle(t *testing.T) {
	c := NewCredentials("  tok ")
	tok, err := c.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)

	c.Clear()
	assert.False(t, c.Present())
	_, err = c.Token()
	assert.ErrorIs(t, err, domain.ErrNoCredential)
}
