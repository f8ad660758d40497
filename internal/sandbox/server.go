// Package sandbox is a local stand-in for the TableCRM API, serving a fixed
// dataset and accepting sales documents.
package sandbox

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
)

// Server serves a Dataset behind a token.
type Server struct {
	token  string
	data   Dataset
	logger *log.Logger

	mu     sync.Mutex
	docs   []json.RawMessage
	nextID int64
}

func New(token string, data Dataset, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{token: token, data: data, logger: logger, nextID: 9000}
}

// Handler returns the gin engine serving the API under /api/v1.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(s.logger.Writer()), gin.Recovery())

	v1 := router.Group("/api/v1", s.auth)
	v1.GET("/contragents/", func(c *gin.Context) { paged(c, s.data.Contragents) })
	v1.GET("/payboxes/", func(c *gin.Context) { c.JSON(http.StatusOK, s.data.Payboxes) })
	v1.GET("/organizations/", func(c *gin.Context) { c.JSON(http.StatusOK, s.data.Organizations) })
	v1.GET("/warehouses/", func(c *gin.Context) { paged(c, s.data.Warehouses) })
	v1.GET("/price_types/", func(c *gin.Context) { paged(c, s.data.PriceTypes) })
	v1.GET("/nomenclature/", func(c *gin.Context) { paged(c, s.data.Nomenclature) })
	v1.GET("/loyality_cards/", s.loyaltyCards)
	v1.POST("/docs_sales/", s.createSales)
	return router
}

// Documents returns the raw documents accepted so far.
func (s *Server) Documents() []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]json.RawMessage(nil), s.docs...)
}

func (s *Server) auth(c *gin.Context) {
	if c.Query("token") != s.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}
	c.Next()
}

func paged[T any](c *gin.Context, all []T) {
	limit := queryInt(c, "limit", 100)
	offset := queryInt(c, "offset", 0)
	if limit <= 0 {
		limit = 100
	}
	result := []T{}
	if offset < len(all) {
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		result = all[offset:end]
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "count": len(all)})
}

func queryInt(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil && v >= 0 {
		return v
	}
	return def
}

func (s *Server) loyaltyCards(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("contragent_id"), 10, 64)
	cards := []LoyaltyCard{}
	if err == nil {
		for _, card := range s.data.LoyaltyCards {
			if card.ContragentID == id {
				cards = append(cards, card)
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"result": cards, "count": len(cards)})
}

type salesDoc struct {
	Contragent   int64 `json:"contragent"`
	Paybox       int64 `json:"paybox"`
	Organization int64 `json:"organization"`
	Warehouse    int64 `json:"warehouse"`
	Goods        []struct {
		Nomenclature int64 `json:"nomenclature"`
		Quantity     int   `json:"quantity"`
	} `json:"goods"`
}

func (s *Server) createSales(c *gin.Context) {
	var raw []json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil || len(raw) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "expected a non-empty array of documents"})
		return
	}

	out := make([]gin.H, 0, len(raw))
	for _, body := range raw {
		var doc salesDoc
		if err := json.Unmarshal(body, &doc); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "malformed document"})
			return
		}
		if msg := s.check(doc); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": msg})
			return
		}
	}

	s.mu.Lock()
	for _, body := range raw {
		s.nextID++
		s.docs = append(s.docs, body)
		out = append(out, gin.H{"id": s.nextID, "number": strconv.FormatInt(s.nextID, 10)})
	}
	s.mu.Unlock()

	s.logger.Printf("accepted %d sales document(s)", len(out))
	c.JSON(http.StatusOK, out)
}

func (s *Server) check(doc salesDoc) string {
	if !contains(s.data.Contragents, doc.Contragent, func(v Contragent) int64 { return v.ID }) {
		return fmt.Sprintf("contragent %d not found", doc.Contragent)
	}
	if !contains(s.data.Payboxes, doc.Paybox, func(v Paybox) int64 { return v.ID }) {
		return fmt.Sprintf("paybox %d not found", doc.Paybox)
	}
	if !contains(s.data.Organizations, doc.Organization, func(v Organization) int64 { return v.ID }) {
		return fmt.Sprintf("organization %d not found", doc.Organization)
	}
	if msg := s.checkWarehouse(doc.Warehouse); msg != "" {
		return msg
	}
	if len(doc.Goods) == 0 {
		return "goods must not be empty"
	}
	for _, g := range doc.Goods {
		if !contains(s.data.Nomenclature, g.Nomenclature, func(v Nomenclature) int64 { return v.ID }) {
			return fmt.Sprintf("nomenclature %d not found", g.Nomenclature)
		}
	}
	return ""
}

func (s *Server) checkWarehouse(id int64) string {
	for _, w := range s.data.Warehouses {
		if w.ID != id {
			continue
		}
		if w.Archived {
			return fmt.Sprintf("warehouse %d is archived", w.ID)
		}
		return ""
	}
	return fmt.Sprintf("warehouse %d not found", id)
}

func contains[T any](items []T, id int64, key func(T) int64) bool {
	for _, it := range items {
		if key(it) == id {
			return true
		}
	}
	return false
}
