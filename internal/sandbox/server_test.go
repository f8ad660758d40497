package sandbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/domain"
	"orderdesk/internal/order"
	"orderdesk/internal/sandbox"
	"orderdesk/internal/service/workflow"
	"orderdesk/internal/tablecrm"
)

func startSandbox(t *testing.T) (*sandbox.Server, *tablecrm.Client) {
	t.Helper()
	sb := sandbox.New("demo-token", sandbox.Demo(), nil)
	srv := httptest.NewServer(sb.Handler())
	t.Cleanup(srv.Close)
	return sb, tablecrm.NewClient(srv.URL+"/api/v1", tablecrm.Options{}, nil)
}

func newSession(t *testing.T, client *tablecrm.Client, token string, limit int) *workflow.Session {
	t.Helper()
	creds := tablecrm.NewCredentials(token)
	s := workflow.New("e2e", tablecrm.NewCatalog(client.Bind(creds), limit), creds, workflow.Deps{})
	t.Cleanup(s.Close)
	return s
}

func TestSandbox_RejectsWrongToken(t *testing.T) {
	_, client := startSandbox(t)
	cat := tablecrm.NewCatalog(client.Bind(tablecrm.NewCredentials("wrong")), 0)

	_, _, err := cat.Contragents(context.Background(), 1)
	var remoteErr *tablecrm.RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, 401, remoteErr.Status)
	assert.Equal(t, "Not authenticated", remoteErr.Message)
}

func TestSandbox_CatalogDecoding(t *testing.T) {
	_, client := startSandbox(t)
	cat := tablecrm.NewCatalog(client.Bind(tablecrm.NewCredentials("demo-token")), 2)
	ctx := context.Background()

	customers, total, err := cat.Contragents(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, customers, 1)
	assert.Equal(t, domain.ID(46), customers[0].ID)

	accounts, total, err := cat.Payboxes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, "Card terminal", accounts[1].Name)
	assert.Equal(t, "Без названия", accounts[2].Name)

	orgs, _, err := cat.Organizations(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Desk Trading", orgs[1].Name)

	products, _, err := cat.Nomenclature(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "15", products[0].Stock.String())
	assert.Equal(t, "150", products[0].FirstPrice().String())

	cards, err := cat.LoyaltyCards(ctx, 42)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, int64(5500100), cards[0].CardNumber)
}

func TestSandbox_FullWorkflow(t *testing.T) {
	sb, client := startSandbox(t)
	s := newSession(t, client, "demo-token", 2)
	ctx := context.Background()

	require.NoError(t, s.Select(ctx, domain.KindCustomers, 42))
	require.NoError(t, s.Select(ctx, domain.KindAccounts, 7))
	require.NoError(t, s.Select(ctx, domain.KindOrganizations, 3))
	require.NoError(t, s.Select(ctx, domain.KindWarehouses, 9))
	require.NoError(t, s.Select(ctx, domain.KindPriceTypes, 6))
	require.NoError(t, s.AddItem(ctx, 100))
	require.NoError(t, s.AddItem(ctx, 103))
	require.NoError(t, s.SetQuantity(100, 2))
	s.WaitIdle()

	res, err := s.Submit(ctx, order.ModePosted)
	require.NoError(t, err)
	assert.Equal(t, "draft created and posted", res.Message)
	require.Len(t, res.DocumentIDs, 1)

	docs := sb.Documents()
	require.Len(t, docs, 1)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(docs[0], &doc))
	assert.Equal(t, "300.00", doc["paid_rubles"])
	assert.Equal(t, true, doc["status"])
	assert.Equal(t, float64(77), doc["loyality_card_id"])
	goods := doc["goods"].([]any)
	require.Len(t, goods, 2)
	assert.Equal(t, float64(116), goods[1].(map[string]any)["unit"])
	assert.Equal(t, float64(0), goods[1].(map[string]any)["price"])
	assert.Nil(t, s.Snapshot().Customer)
}

func TestSandbox_RejectedSubmissionKeepsDraft(t *testing.T) {
	sb, client := startSandbox(t)
	s := newSession(t, client, "demo-token", 0)
	ctx := context.Background()

	require.NoError(t, s.Select(ctx, domain.KindCustomers, 43))
	require.NoError(t, s.Select(ctx, domain.KindAccounts, 8))
	require.NoError(t, s.Select(ctx, domain.KindOrganizations, 4))
	require.NoError(t, s.Select(ctx, domain.KindWarehouses, 10))
	require.NoError(t, s.AddItem(ctx, 101))
	s.WaitIdle()

	_, err := s.Submit(ctx, order.ModeDraft)
	var subErr *domain.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, "warehouse 10 is archived", subErr.Message)
	assert.Empty(t, sb.Documents())
	assert.Len(t, s.Snapshot().Items, 1)
	assert.Equal(t, domain.LoyaltyNotFound, s.Snapshot().Loyalty.Status)
}
