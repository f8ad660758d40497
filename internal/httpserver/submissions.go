package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"orderdesk/internal/repository/submission"
)

type submissionResponse struct {
	ID           string          `json:"id"`
	SessionID    string          `json:"sessionId"`
	Mode         string          `json:"mode"`
	Succeeded    bool            `json:"succeeded"`
	Message      string          `json:"message"`
	ContragentID int64           `json:"contragentId"`
	Total        decimal.Decimal `json:"total"`
	ItemCount    int             `json:"itemCount"`
	DocumentIDs  []int64         `json:"documentIds"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type submissionList struct {
	Count   int                  `json:"count"`
	Results []submissionResponse `json:"results"`
}

func toSubmissionList(records []submission.Record) submissionList {
	out := submissionList{Results: make([]submissionResponse, 0, len(records))}
	for _, r := range records {
		out.Results = append(out.Results, submissionResponse{
			ID:           r.ID.String(),
			SessionID:    r.SessionID,
			Mode:         r.Mode,
			Succeeded:    r.Succeeded,
			Message:      r.Message,
			ContragentID: r.ContragentID,
			Total:        r.Total,
			ItemCount:    r.ItemCount,
			DocumentIDs:  r.DocumentIDs,
			Payload:      r.Payload,
			CreatedAt:    r.CreatedAt,
		})
	}
	out.Count = len(out.Results)
	return out
}

func (h *handlers) listSubmissions(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"statusCode": http.StatusServiceUnavailable, "message": "submission journal disabled"})
		return
	}
	records, err := h.journal.Recent(c.Request.Context(), queryLimit(c, 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSubmissionList(records))
}

func (h *handlers) sessionSubmissions(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"statusCode": http.StatusServiceUnavailable, "message": "submission journal disabled"})
		return
	}
	records, err := h.journal.BySession(c.Request.Context(), currentSession(c).ID())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSubmissionList(records))
}
