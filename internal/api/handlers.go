package api

import (
	"errors"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/riskwise/internal/advisor"
	"github.com/ajitpratap0/riskwise/internal/llm"
	"github.com/ajitpratap0/riskwise/internal/risk"
)

// Component health states
const (
	statusHealthy       = "healthy"
	statusUnhealthy     = "unhealthy"
	statusDegraded      = "degraded"
	statusNotConfigured = "not_configured"
)

// memberFields are the member attributes accepted by the structured
// endpoints. Age and balance are pointers so absence can be reported.
type memberFields struct {
	Age       *int             `json:"age"`
	Balance   *decimal.Decimal `json:"balance"`
	Housing   bool             `json:"housing"`
	Loan      bool             `json:"loan"`
	Job       string           `json:"job"`
	Marital   string           `json:"marital"`
	Education string           `json:"education"`
}

// member validates the fields and builds a normalized member
func (f memberFields) member() (risk.Member, error) {
	var errs risk.ValidationErrors
	if f.Age == nil {
		errs = append(errs, risk.ValidationError{Field: "age", Message: "age is required"})
	}
	if f.Balance == nil {
		errs = append(errs, risk.ValidationError{Field: "balance", Message: "balance is required"})
	}
	if len(errs) > 0 {
		return risk.Member{}, errs
	}

	m := risk.Member{
		Age:             *f.Age,
		Balance:         *f.Balance,
		HasHousingLoan:  f.Housing,
		HasPersonalLoan: f.Loan,
		Job:             f.Job,
		Marital:         f.Marital,
		Education:       f.Education,
	}
	if err := m.Validate(); err != nil {
		return risk.Member{}, err
	}
	return m.Normalized(), nil
}

// validateSupplied checks only the fields that were sent. Personalization
// treats every attribute as optional.
func (f memberFields) validateSupplied() error {
	if f.Age == nil {
		return nil
	}
	return risk.Member{Age: *f.Age}.Validate()
}

// profile is what personalization may use from partially supplied fields
func (f memberFields) profile() advisor.Profile {
	return advisor.Profile{Age: f.Age, Balance: f.Balance, HasLoans: f.Housing || f.Loan}
}

type assessRequest struct {
	memberFields
	Enhanced  bool           `json:"enhanced"`
	Portfolio []risk.Holding `json:"portfolio"`
}

type assessResponse struct {
	Member     risk.Member `json:"member"`
	Assessment any         `json:"assessment"`
	Model      risk.State  `json:"model_state"`
}

type recommendRequest struct {
	memberFields
	Tier string `json:"tier"`
}

type recommendResponse struct {
	Tier           string           `json:"tier"`
	Assessment     *risk.Assessment `json:"assessment,omitempty"`
	Recommendation any              `json:"recommendation"`
}

type queryRequest struct {
	Query   string            `json:"query"`
	History []llm.ChatMessage `json:"history"`
}

// Root handler
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "riskwise API",
		"version": s.version,
		"status":  "running",
		"time":    time.Now().UTC(),
	})
}

// handleHealth reports backing services and the model state. Optional
// services that are down degrade the status without failing the check.
func (s *Server) handleHealth(c *gin.Context) {
	database := s.componentStatus(c, "database", s.deps.Database)
	cache := s.componentStatus(c, "cache", s.deps.Cache)

	components := gin.H{
		"database": database,
		"cache":    cache,
	}
	if s.deps.Classifier != nil {
		components["model"] = gin.H{"status": string(s.deps.Classifier.State())}
	}

	systemStatus := statusHealthy
	if database["status"] == statusUnhealthy || cache["status"] == statusUnhealthy {
		systemStatus = statusDegraded
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     systemStatus,
		"timestamp":  time.Now().UTC(),
		"uptime":     time.Since(s.startedAt).Seconds(),
		"version":    s.version,
		"components": components,
		"system": gin.H{
			"goroutines": runtime.NumGoroutine(),
			"go_version": runtime.Version(),
		},
	})
}

func (s *Server) componentStatus(c *gin.Context, name string, hc HealthChecker) gin.H {
	if hc == nil {
		return gin.H{"status": statusNotConfigured}
	}
	if err := hc.Health(c.Request.Context()); err != nil {
		log.Warn().Err(err).Str("component", name).Msg("Health check failed")
		return gin.H{"status": statusUnhealthy, "error": err.Error()}
	}
	return gin.H{"status": statusHealthy}
}

// handleModel describes the installed model bundle
func (s *Server) handleModel(c *gin.Context) {
	if s.deps.Classifier == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "classifier not configured"})
		return
	}
	c.JSON(http.StatusOK, s.deps.Classifier.Info())
}

// handleCatalogue lists the catalogue entries in display order
func (s *Server) handleCatalogue(c *gin.Context) {
	if s.deps.Advisor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recommendation engine not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": s.deps.Advisor.Catalogue().Entries()})
}

// handleAssess classifies one member. With enhanced set, or a portfolio
// supplied, the language-model narrative is attached.
func (s *Server) handleAssess(c *gin.Context) {
	if s.deps.Classifier == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "classifier not configured"})
		return
	}

	var req assessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	m, err := req.member()
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	resp := assessResponse{Member: m, Model: s.deps.Classifier.State()}
	if (req.Enhanced || len(req.Portfolio) > 0) && s.deps.Analyzer != nil {
		resp.Assessment = s.deps.Analyzer.Analyze(c.Request.Context(), m, req.Portfolio)
	} else {
		resp.Assessment = s.deps.Classifier.Classify(c.Request.Context(), m)
	}
	c.JSON(http.StatusOK, resp)
}

// handleRecommend personalizes the entry for the given tier, or for the
// tier the classifier assigns to the given member
func (s *Server) handleRecommend(c *gin.Context) {
	s.recommend(c, false)
}

// handleRecommendEnriched is handleRecommend plus market context and advice
func (s *Server) handleRecommendEnriched(c *gin.Context) {
	s.recommend(c, true)
}

func (s *Server) recommend(c *gin.Context, enriched bool) {
	if s.deps.Advisor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recommendation engine not configured"})
		return
	}

	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resp := recommendResponse{Tier: strings.TrimSpace(req.Tier)}
	profile := req.profile()

	if resp.Tier == "" {
		if s.deps.Classifier == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "classifier not configured"})
			return
		}
		m, err := req.member()
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		a := s.deps.Classifier.Classify(c.Request.Context(), m)
		resp.Assessment = &a
		resp.Tier = string(a.RandomForest)
		profile = advisor.ProfileFromMember(m)
	} else if err := req.validateSupplied(); err != nil {
		respondBadRequest(c, err)
		return
	}

	if enriched {
		resp.Recommendation = s.deps.Advisor.Enrich(c.Request.Context(), resp.Tier, profile)
	} else {
		resp.Recommendation = s.deps.Advisor.Personalize(resp.Tier, profile)
	}
	c.JSON(http.StatusOK, resp)
}

// handleQuery answers a free-text question. A reply is always produced.
func (s *Server) handleQuery(c *gin.Context) {
	if s.deps.Orchestrator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant not configured"})
		return
	}

	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		respondBadRequest(c, risk.ValidationErrors{{Field: "query", Message: "query is required"}})
		return
	}

	c.JSON(http.StatusOK, s.deps.Orchestrator.Process(c.Request.Context(), req.Query, req.History))
}

// respondBadRequest reports validation failures field by field
func respondBadRequest(c *gin.Context, err error) {
	var verrs risk.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": verrs,
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid request body",
		"details": err.Error(),
	})
}
