// Copyright (C) 2025, GreenADX Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api exposes the campaign ledger over HTTP for the wallet-connected
// front end. The caller's principal comes from the X-Wallet-Address header,
// supplied by the wallet collaborator; no signature verification happens
// here.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/greenadx/carbonledger/ledger"
	"github.com/greenadx/carbonledger/pkg/log"
	"github.com/greenadx/carbonledger/pkg/metric"
	"github.com/greenadx/carbonledger/views"
)

// WalletHeader carries the caller's principal address.
const WalletHeader = "X-Wallet-Address"

// Server wires the ledger to the HTTP surface.
type Server struct {
	ledger  *ledger.Ledger
	hub     *Hub
	metrics *metric.Metrics
	log     log.Logger
}

// NewServer creates an API server over the given ledger.
func NewServer(l *ledger.Ledger, hub *Hub, m *metric.Metrics, logger log.Logger) *Server {
	return &Server{
		ledger:  l,
		hub:     hub,
		metrics: m,
		log:     logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", WalletHeader},
	}))
	router.Use(s.countRequests())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/campaigns", s.listCampaigns)
		v1.POST("/campaigns", s.submitCampaign)
		v1.POST("/campaigns/:id/compute", s.computeFootprint)
		v1.GET("/stats", s.stats)
		v1.GET("/chart", s.chart)
		v1.GET("/orphans", s.orphans)
		v1.GET("/status", s.status)
		v1.GET("/events", s.events)
	}

	return router
}

func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if s.metrics != nil {
			s.metrics.RequestsProcessed.WithLabelValues(
				c.Request.Method,
				strconv.Itoa(c.Writer.Status()),
			).Inc()
		}
	}
}

// listCampaigns returns one page of the filtered campaign list.
// Query params: q (substring filter), page (1-based), pageSize.
func (s *Server) listCampaigns(c *gin.Context) {
	records, err := s.ledger.LoadAll(c.Request.Context())
	if err != nil {
		s.ledgerError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(views.DefaultPageSize)))

	filtered := views.Filter(records, c.Query("q"))
	c.JSON(http.StatusOK, views.Paginate(filtered, page, pageSize))
}

type submitRequest struct {
	Name    string         `json:"name" binding:"required"`
	Metrics ledger.Metrics `json:"metrics" binding:"required"`
}

func (s *Server) submitCampaign(c *gin.Context) {
	owner := c.GetHeader(WalletHeader)
	if owner == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wallet address required"})
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg, ok := validateMetrics(req.Metrics); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	rec, err := s.ledger.SubmitCampaign(c.Request.Context(), req.Name, req.Metrics, owner)
	if err != nil {
		s.ledgerError(c, err)
		return
	}

	s.hub.Broadcast(EventCampaignCreated, rec.ID)
	c.JSON(http.StatusCreated, rec)
}

// validateMetrics enforces the business preconditions that the ledger writer
// itself does not re-check.
func validateMetrics(m ledger.Metrics) (string, bool) {
	switch {
	case m.Servers < 1:
		return "servers must be at least 1", false
	case m.BandwidthGB < 0:
		return "bandwidthGB must not be negative", false
	case m.Impressions < 0:
		return "impressions must not be negative", false
	case m.DurationDays < 1:
		return "durationDays must be at least 1", false
	}
	return "", true
}

func (s *Server) computeFootprint(c *gin.Context) {
	caller := c.GetHeader(WalletHeader)
	if caller == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wallet address required"})
		return
	}

	id := c.Param("id")
	rec, err := s.ledger.ComputeFootprint(c.Request.Context(), id, caller)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		case errors.Is(err, ledger.ErrUnauthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "only the campaign owner may compute"})
		case errors.Is(err, ledger.ErrAlreadyCompleted):
			c.JSON(http.StatusConflict, gin.H{"error": "campaign already completed"})
		case errors.Is(err, ledger.ErrRecordFailed):
			s.hub.Broadcast(EventCampaignFailed, id)
			c.JSON(http.StatusConflict, gin.H{"error": "campaign is in error state"})
		default:
			s.ledgerError(c, err)
		}
		return
	}

	s.hub.Broadcast(EventCampaignCompleted, rec.ID)
	c.JSON(http.StatusOK, rec)
}

func (s *Server) stats(c *gin.Context) {
	records, err := s.ledger.LoadAll(c.Request.Context())
	if err != nil {
		s.ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, views.Statistics(records))
}

func (s *Server) chart(c *gin.Context) {
	records, err := s.ledger.LoadAll(c.Request.Context())
	if err != nil {
		s.ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, views.ChartView(records))
}

func (s *Server) orphans(c *gin.Context) {
	orphans, err := s.ledger.AuditOrphans(c.Request.Context())
	if err != nil {
		s.ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orphans": orphans})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"available": s.ledger.IsAvailable()})
}

func (s *Server) events(c *gin.Context) {
	if err := s.hub.Subscribe(c.Writer, c.Request); err != nil {
		s.log.Warn("websocket upgrade failed", log.Error(err))
	}
}

func (s *Server) ledgerError(c *gin.Context, err error) {
	if errors.Is(err, ledger.ErrLedgerUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ledger store unavailable"})
		return
	}
	s.log.Error("unhandled ledger error", log.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
