package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/riskwise/internal/db"
	"github.com/ajitpratap0/riskwise/internal/risk"
)

// ConsultationReader reads back processed queries
type ConsultationReader interface {
	RecentConsultations(ctx context.Context, limit int) ([]db.Consultation, error)
	GetConsultation(ctx context.Context, id uuid.UUID) (*db.Consultation, error)
}

// Page sizes for GET /consultations
const (
	defaultConsultationLimit = 20
	maxConsultationLimit     = 100
)

// handleListConsultations returns the most recent consultations, newest first
func (s *Server) handleListConsultations(c *gin.Context) {
	if s.deps.Consultations == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not configured"})
		return
	}

	limit := defaultConsultationLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxConsultationLimit {
			respondBadRequest(c, risk.ValidationErrors{{
				Field:   "limit",
				Message: "limit must be between 1 and " + strconv.Itoa(maxConsultationLimit),
			}})
			return
		}
		limit = n
	}

	items, err := s.deps.Consultations.RecentConsultations(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list consultations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list consultations"})
		return
	}
	if items == nil {
		items = []db.Consultation{}
	}
	c.JSON(http.StatusOK, gin.H{
		"consultations": items,
		"count":         len(items),
	})
}

// handleGetConsultation returns one consultation by ID
func (s *Server) handleGetConsultation(c *gin.Context) {
	if s.deps.Consultations == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not configured"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, risk.ValidationErrors{{Field: "id", Message: "id must be a UUID"}})
		return
	}

	item, err := s.deps.Consultations.GetConsultation(c.Request.Context(), id)
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "consultation not found"})
	case err != nil:
		log.Error().Err(err).Str("id", id.String()).Msg("Failed to load consultation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load consultation"})
	default:
		c.JSON(http.StatusOK, item)
	}
}
