package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/kailas-cloud/labcompare/internal/domain"
	"github.com/kailas-cloud/labcompare/internal/domain/report"
	"github.com/kailas-cloud/labcompare/internal/logger"
	healthuc "github.com/kailas-cloud/labcompare/internal/usecase/health"
	usageuc "github.com/kailas-cloud/labcompare/internal/usecase/usage"
)

const maxBodyBytes = 1 << 20

// Comparer runs comparisons.
type Comparer interface {
	Run(ctx context.Context, city string, competitors []string) (*domain.Comparison, error)
	CanonicalTests() []domain.CanonicalTest
}

// ComparisonStore reads stored comparisons.
type ComparisonStore interface {
	Get(ctx context.Context, city string) (*domain.Comparison, error)
	List(ctx context.Context) ([]*domain.Comparison, error)
	Delete(ctx context.Context, city string) error
}

// Server holds the HTTP handlers.
type Server struct {
	compare       Comparer
	comparisons   ComparisonStore
	usage         *usageuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. comparisons may be nil when no store is configured.
func NewServer(
	compare Comparer,
	comparisons ComparisonStore,
	usage *usageuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		compare:       compare,
		comparisons:   comparisons,
		usage:         usage,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

type scrapeRequest struct {
	Location    string   `json:"location"`
	Competitors []string `json:"competitors"`
}

type scrapeResponse struct {
	Data report.Data `json:"data"`
}

type analyzeResponse struct {
	Report string `json:"report"`
}

type comparisonResponse struct {
	RunID           string                  `json:"run_id"`
	City            string                  `json:"city"`
	Labs            []domain.LabID          `json:"labs"`
	Data            report.Data             `json:"data"`
	Recommendations []domain.Recommendation `json:"recommendations"`
	Report          string                  `json:"report"`
	CreatedAt       time.Time               `json:"created_at"`
}

type listResponse struct {
	Comparisons []comparisonResponse `json:"comparisons"`
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Lab Comparison Service is running"})
}

// Scrape handles POST /scrape: a full comparison run for one city.
func (s *Server) Scrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	city := strings.TrimSpace(req.Location)
	if city == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Location name cannot be empty")
		return
	}
	if len(req.Competitors) == 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Competitors list cannot be empty")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	c, err := s.compare.Run(ctx, city, req.Competitors)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) || errors.Is(err, domain.ErrInsufficientData) {
			logger.FromContextOr(r.Context(), s.logger).Info("No comparison data", zap.String("city", city), zap.Error(err))
			writeError(w, http.StatusNotFound, CodeNoData, "No comparison data found for location: "+city)
			return
		}
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, scrapeResponse{Data: report.Structured(c, s.compare.CanonicalTests())})
}

// Analyze handles POST /analyze: the report for a caller-supplied price table.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if !gjson.ValidBytes(body) {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: malformed JSON")
		return
	}
	prices := gjson.GetBytes(body, "prices")
	if !prices.Exists() {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "prices is required")
		return
	}

	t, err := report.DecodeTable([]byte(prices.Raw))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{Report: report.FromPrices(t, s.compare.CanonicalTests())})
}

// ListComparisons handles GET /comparisons.
func (s *Server) ListComparisons(w http.ResponseWriter, r *http.Request) {
	if s.comparisons == nil {
		writeJSON(w, http.StatusOK, listResponse{Comparisons: []comparisonResponse{}})
		return
	}
	cs, err := s.comparisons.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	items := make([]comparisonResponse, len(cs))
	for i, c := range cs {
		items[i] = s.comparisonToResponse(c)
	}
	writeJSON(w, http.StatusOK, listResponse{Comparisons: items})
}

// GetComparison handles GET /comparisons/{city}.
func (s *Server) GetComparison(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	if s.comparisons == nil {
		s.handleDomainError(w, r, fmt.Errorf("comparison %q: %w", city, domain.ErrNotFound))
		return
	}
	c, err := s.comparisons.Get(r.Context(), city)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.comparisonToResponse(c))
}

// DeleteComparison handles DELETE /comparisons/{city}.
func (s *Server) DeleteComparison(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	if s.comparisons == nil {
		s.handleDomainError(w, r, fmt.Errorf("comparison %q: %w", city, domain.ErrNotFound))
		return
	}
	if err := s.comparisons.Delete(r.Context(), city); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetUsage handles GET /usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, err := usageuc.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.usage.GetReport(r.Context(), period))
}

type healthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	rep := s.health.Check(r.Context())

	status := http.StatusOK
	if rep.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: rep.Status, Checks: rep.Checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) comparisonToResponse(c *domain.Comparison) comparisonResponse {
	return comparisonResponse{
		RunID:           c.RunID,
		City:            c.City,
		Labs:            c.Labs,
		Data:            report.Structured(c, s.compare.CanonicalTests()),
		Recommendations: c.Recommendations,
		Report:          report.Summary(c.Recommendations),
		CreatedAt:       c.CreatedAt,
	}
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
