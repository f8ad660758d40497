package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"orderdesk/internal/domain"
	"orderdesk/internal/metrics"
	"orderdesk/internal/order"
	"orderdesk/internal/repository/submission"
	"orderdesk/internal/tablecrm"
)

// Result is the outcome of a successful submission.
type Result struct {
	Mode        string          `json:"mode"`
	Message     string          `json:"message"`
	DocumentIDs []domain.ID     `json:"documentIds"`
	Total       decimal.Decimal `json:"total"`
	SubmittedAt time.Time       `json:"submittedAt"`
}

// Submit validates the draft and sends it as one sales document. On success the
// draft is reset; on failure it is left untouched and a *SubmissionError
// carries the message to show. Only one submission per session runs at a time.
func (s *Session) Submit(ctx context.Context, mode order.Mode) (Result, error) {
	if !s.submitting.CompareAndSwap(false, true) {
		s.metrics.RecordSubmission(mode.String(), metrics.OutcomeBusy, 0)
		return Result{}, fmt.Errorf("%w: submission", domain.ErrBusy)
	}
	defer s.submitting.Store(false)

	if err := s.requireCredential(); err != nil {
		return Result{}, err
	}

	submittedAt := s.now()
	s.mu.Lock()
	doc, err := order.BuildDocument(s.draft, mode, submittedAt, s.unit)
	total := s.draft.Total()
	s.mu.Unlock()
	if err != nil {
		s.metrics.RecordSubmission(mode.String(), metrics.OutcomeInvalid, 0)
		return Result{}, err
	}

	start := time.Now()
	ids, err := s.remote.CreateSales(ctx, doc)
	elapsed := time.Since(start)
	if err != nil {
		subErr := &domain.SubmissionError{Message: failureMessage(err), Err: err}
		s.logger.Printf("session %s: %s submission failed: %v", s.id, mode, err)
		s.metrics.RecordSubmission(mode.String(), metrics.OutcomeError, elapsed)
		s.record(ctx, doc, mode, total, nil, subErr.Message, false)
		return Result{}, subErr
	}

	s.mu.Lock()
	s.draft.Reset()
	s.mu.Unlock()

	res := Result{
		Mode:        mode.String(),
		Message:     mode.SuccessMessage(),
		DocumentIDs: ids,
		Total:       total,
		SubmittedAt: submittedAt,
	}
	s.logger.Printf("session %s: %s (%d goods, total %s)", s.id, res.Message, len(doc.Goods), total.StringFixed(2))
	s.metrics.RecordSubmission(mode.String(), metrics.OutcomeSuccess, elapsed)
	s.record(ctx, doc, mode, total, ids, res.Message, true)
	return res, nil
}

// failureMessage is the remote's own explanation, when it gave one.
func failureMessage(err error) string {
	var remoteErr *tablecrm.RemoteError
	if errors.As(err, &remoteErr) && remoteErr.Message != "" {
		return remoteErr.Message
	}
	return domain.DefaultSubmissionMessage
}

func (s *Session) record(ctx context.Context, doc order.Document, mode order.Mode, total decimal.Decimal, ids []domain.ID, message string, ok bool) {
	if s.journal == nil {
		return
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		s.logger.Printf("session %s: encode journal payload: %v", s.id, err)
		return
	}
	docIDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		docIDs = append(docIDs, int64(id))
	}
	rec := submission.Record{
		SessionID:    s.id,
		Mode:         mode.String(),
		Succeeded:    ok,
		Message:      message,
		ContragentID: doc.Contragent,
		Total:        total,
		ItemCount:    len(doc.Goods),
		DocumentIDs:  docIDs,
		Payload:      payload,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.journal.Append(context.WithoutCancel(ctx), rec); err != nil {
		s.metrics.RecordJournalFailure()
		s.logger.Printf("session %s: journal submission: %v", s.id, err)
	}
}
