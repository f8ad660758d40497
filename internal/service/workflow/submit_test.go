package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/domain"
	"orderdesk/internal/metrics"
	"orderdesk/internal/order"
	"orderdesk/internal/service/workflow"
	"orderdesk/internal/tablecrm"
)

func TestSubmit_DraftScenario(t *testing.T) {
	remote := newFakeRemote()
	journal := &memJournal{}
	s := newSession(t, remote, workflow.Deps{Journal: journal})
	composeOrder(t, s)

	res, err := s.Submit(context.Background(), order.ModeDraft)
	require.NoError(t, err)
	assert.Equal(t, "draft created", res.Message)
	assert.Equal(t, "draft", res.Mode)
	assert.Equal(t, []domain.ID{9001}, res.DocumentIDs)
	assert.Equal(t, "300", res.Total.String())

	docs := remote.submitted()
	require.Len(t, docs, 1)
	doc := docs[0]
	assert.False(t, doc.Status)
	assert.Equal(t, "300.00", doc.PaidRubles)
	assert.Equal(t, fixedNow.Unix(), doc.Dated)
	assert.Equal(t, int64(42), doc.Contragent)
	assert.Equal(t, int64(7), doc.Paybox)
	assert.Equal(t, int64(3), doc.Organization)
	assert.Equal(t, int64(9), doc.Warehouse)
	assert.Nil(t, doc.LoyaltyCardID)
	require.Len(t, doc.Goods, 1)
	assert.Equal(t, 116, doc.Goods[0].Unit)
	assert.Equal(t, 2, doc.Goods[0].Quantity)
	assert.Equal(t, int64(100), doc.Goods[0].Nomenclature)

	snap := s.Snapshot()
	assert.Nil(t, snap.Customer)
	assert.Empty(t, snap.Items)
	assert.True(t, snap.Total.IsZero())

	require.Len(t, journal.records, 1)
	assert.True(t, journal.records[0].Succeeded)
	assert.Equal(t, []int64{9001}, journal.records[0].DocumentIDs)
}

func TestSubmit_PostedWithLoyaltyCard(t *testing.T) {
	remote := newFakeRemote()
	remote.cards[42] = []domain.LoyaltyCard{{ID: 77, ContragentID: 42}}
	s := newSession(t, remote, workflow.Deps{DefaultUnit: 200})
	composeOrder(t, s)

	res, err := s.Submit(context.Background(), order.ModePosted)
	require.NoError(t, err)
	assert.Equal(t, "draft created and posted", res.Message)

	doc := remote.submitted()[0]
	assert.True(t, doc.Status)
	require.NotNil(t, doc.LoyaltyCardID)
	assert.Equal(t, int64(77), *doc.LoyaltyCardID)
	assert.Equal(t, 200, doc.Goods[0].Unit)
}

func TestSubmit_NoItemsMakesNoNetworkCall(t *testing.T) {
	remote := newFakeRemote()
	s := newSession(t, remote, workflow.Deps{})
	composeOrder(t, s)
	s.RemoveItem(100)

	_, err := s.Submit(context.Background(), order.ModeDraft)
	var mf *domain.MissingFieldError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, domain.FieldItems, mf.Field)
	assert.Empty(t, remote.submitted())
}

func TestSubmit_MissingCustomer(t *testing.T) {
	remote := newFakeRemote()
	m := metrics.New("test")
	s := newSession(t, remote, workflow.Deps{Metrics: m})
	composeOrder(t, s)
	require.NoError(t, s.Clear(domain.KindCustomers))

	_, err := s.Submit(context.Background(), order.ModeDraft)
	var mf *domain.MissingFieldError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, domain.FieldCustomer, mf.Field)
	assert.Empty(t, remote.submitted())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("draft", metrics.OutcomeInvalid)))
}

func TestSubmit_RemoteRejectionKeepsDraft(t *testing.T) {
	remote := newFakeRemote()
	remote.createErr = &tablecrm.RemoteError{Status: 400, Message: "warehouse is archived"}
	journal := &memJournal{}
	m := metrics.New("test")
	s := newSession(t, remote, workflow.Deps{Journal: journal, Metrics: m})
	composeOrder(t, s)
	before := s.Snapshot()

	_, err := s.Submit(context.Background(), order.ModeDraft)
	require.ErrorIs(t, err, domain.ErrSubmissionFailed)
	var subErr *domain.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, "warehouse is archived", subErr.Message)
	assert.Equal(t, before, s.Snapshot())

	require.Len(t, journal.records, 1)
	assert.False(t, journal.records[0].Succeeded)
	assert.Equal(t, "warehouse is archived", journal.records[0].Message)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("draft", metrics.OutcomeError)))
}

func TestSubmit_FailureWithoutMessageUsesFallback(t *testing.T) {
	remote := newFakeRemote()
	remote.createErr = errors.New("dial tcp: connection refused")
	s := newSession(t, remote, workflow.Deps{})
	composeOrder(t, s)

	_, err := s.Submit(context.Background(), order.ModePosted)
	var subErr *domain.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, domain.DefaultSubmissionMessage, subErr.Message)
	assert.Len(t, s.Snapshot().Items, 1)
}

func TestSubmit_JournalFailureDoesNotChangeOutcome(t *testing.T) {
	remote := newFakeRemote()
	m := metrics.New("test")
	s := newSession(t, remote, workflow.Deps{Journal: &memJournal{err: errors.New("db down")}, Metrics: m})
	composeOrder(t, s)

	res, err := s.Submit(context.Background(), order.ModeDraft)
	require.NoError(t, err)
	assert.Equal(t, "draft created", res.Message)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JournalWriteFailure))
}

func TestSubmit_OneAtATime(t *testing.T) {
	remote := newFakeRemote()
	remote.createGate = make(chan struct{})
	remote.createEntered = make(chan struct{}, 1)
	s := newSession(t, remote, workflow.Deps{})
	composeOrder(t, s)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), order.ModeDraft)
		done <- err
	}()
	<-remote.createEntered

	_, err := s.Submit(context.Background(), order.ModeDraft)
	assert.ErrorIs(t, err, domain.ErrBusy)

	close(remote.createGate)
	require.NoError(t, <-done)
	assert.Len(t, remote.submitted(), 1)
}
