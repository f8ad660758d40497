package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"orderdesk/internal/domain"
	"orderdesk/internal/order"
)

type handlers struct {
	sessions SessionStore
	journal  JournalReader
}

type createSessionRequest struct {
	Token string `json:"token" binding:"required"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type selectRequest struct {
	ID domain.ID `json:"id" binding:"required"`
}

type addItemRequest struct {
	ProductID domain.ID `json:"productId" binding:"required"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type submitRequest struct {
	Mode string `json:"mode"`
}

type sessionResponse struct {
	ID            string `json:"id"`
	HasCredential bool   `json:"hasCredential"`
}

func (h *handlers) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "token is required")
		return
	}
	s := h.sessions.Create(req.Token)
	c.JSON(http.StatusCreated, sessionResponse{ID: s.ID(), HasCredential: s.HasCredential()})
}

func (h *handlers) closeSession(c *gin.Context) {
	if err := h.sessions.Close(currentSession(c).ID()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) setToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	s := currentSession(c)
	s.SetToken(req.Token)
	c.JSON(http.StatusOK, sessionResponse{ID: s.ID(), HasCredential: s.HasCredential()})
}

// lookup opens the picker of a kind. While another load of the same kind is in
// flight the cached listing is returned with loading set.
func (h *handlers) lookup(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	s := currentSession(c)
	if err := s.Open(c.Request.Context(), kind); err != nil && !errors.Is(err, domain.ErrBusy) {
		writeError(c, err)
		return
	}
	listing, err := s.Listing(kind, c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *handlers) loadMore(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	s := currentSession(c)
	if err := s.LoadMore(c.Request.Context(), kind); err != nil {
		writeError(c, err)
		return
	}
	listing, err := s.Listing(kind, c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *handlers) draft(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).Snapshot())
}

func (h *handlers) resetDraft(c *gin.Context) {
	s := currentSession(c)
	s.Reset()
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *handlers) selectEntity(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "id is required")
		return
	}
	s := currentSession(c)
	if err := s.Select(c.Request.Context(), kind, req.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *handlers) clearEntity(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	s := currentSession(c)
	if err := s.Clear(kind); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *handlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "productId is required")
		return
	}
	s := currentSession(c)
	if err := s.AddItem(c.Request.Context(), req.ProductID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.Snapshot())
}

func (h *handlers) setQuantity(c *gin.Context) {
	id, ok := itemParam(c)
	if !ok {
		return
	}
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "quantity is required")
		return
	}
	s := currentSession(c)
	if err := s.SetQuantity(id, *req.Quantity); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *handlers) removeItem(c *gin.Context) {
	id, ok := itemParam(c)
	if !ok {
		return
	}
	s := currentSession(c)
	s.RemoveItem(id)
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *handlers) submit(c *gin.Context) {
	var req submitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	mode, err := order.ParseMode(req.Mode)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := currentSession(c).Submit(c.Request.Context(), mode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func kindParam(c *gin.Context) (domain.Kind, bool) {
	kind, err := domain.ParseKind(c.Param("kind"))
	if err != nil {
		writeError(c, err)
		return "", false
	}
	return kind, true
}

func itemParam(c *gin.Context) (domain.ID, bool) {
	id, err := domain.ParseID(c.Param("itemId"))
	if err != nil {
		badRequest(c, "invalid item id")
		return 0, false
	}
	return id, true
}

func queryLimit(c *gin.Context, def int) int {
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
