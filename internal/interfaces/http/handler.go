package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketquotes/internal/application/service/pipeline"
	domain "marketquotes/internal/domain/entity/quotes"
	interfaces "marketquotes/internal/domain/interfaces"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	apiBasePath = "/api/v1"

	// noCacheKey marks a response the cache middleware must not store.
	noCacheKey = "no_cache"
)

var (
	errMissingName      = errors.New("name query param required")
	errMissingSymbol    = errors.New("symbol path param required")
	errSymbolNotFound   = errors.New("symbol not found")
	errNoCompanies      = errors.New("companies must not be empty")
	errTooManyCompanies = errors.New("too many companies in one run")
)

// MaxRunCompanies bounds a single POST /runs request.
const MaxRunCompanies = 5000

// Runner executes a full pipeline run.
type Runner interface {
	Run(ctx context.Context, companies []domain.CompanyRecord) *pipeline.Report
}

type Handler struct {
	router    *gin.Engine
	resolver  interfaces.SymbolResolver
	fetcher   interfaces.QuoteFetcher
	runner    Runner
	publisher interfaces.QuotePublisher
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    *logrus.Entry
}

type Option func(*Handler)

// WithPublisher ships every run's records after the response is built.
func WithPublisher(p interfaces.QuotePublisher) Option {
	return func(h *Handler) { h.publisher = p }
}

// WithCache caches successful GET responses in Redis for ttl.
func WithCache(client *redis.Client, ttl time.Duration) Option {
	return func(h *Handler) {
		h.cache = client
		h.cacheTTL = ttl
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewHandler(resolver interfaces.SymbolResolver, fetcher interfaces.QuoteFetcher, runner Runner, opts ...Option) *Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &Handler{
		router:   router,
		resolver: resolver,
		fetcher:  fetcher,
		runner:   runner,
		logger:   logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithField("component", "http")
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/healthz", h.health)

	api := h.router.Group(apiBasePath)
	{
		lookups := api.Group("")
		if h.cache != nil {
			lookups.Use(h.cacheMiddleware())
		}
		lookups.GET("/symbols", h.getSymbol)
		lookups.GET("/quotes/:symbol", h.getQuote)

		api.POST("/runs", h.createRun)
	}
}

// health reports process liveness
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /healthz [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type symbolResponse struct {
	CompanyName string `json:"company_name"`
	Symbol      string `json:"symbol"`
}

// getSymbol resolves a company name to its exchange symbol
// @Summary      Resolve symbol
// @Description  Search for a company name and pick the first listing on an accepted exchange
// @Tags         symbols
// @Produce      json
// @Param        name  query     string  true  "Company name"
// @Success      200   {object}  symbolResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /symbols [get]
func (h *Handler) getSymbol(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		writeError(c, http.StatusBadRequest, errMissingName)
		return
	}

	symbol, ok := h.resolver.Resolve(c.Request.Context(), name)
	if !ok {
		writeError(c, http.StatusNotFound, errSymbolNotFound)
		return
	}
	c.JSON(http.StatusOK, symbolResponse{CompanyName: name, Symbol: symbol})
}

// getQuote fetches the current quote record for a symbol
// @Summary      Get quote
// @Description  Fetch price, 52-week range and today's range; failures are reported in the record status
// @Tags         quotes
// @Produce      json
// @Param        symbol      path      string  true   "Exchange symbol"
// @Param        identifier  query     string  false  "Company identifier echoed in the record"
// @Success      200         {object}  domain.QuoteRecord
// @Failure      400         {object}  map[string]string
// @Router       /quotes/{symbol} [get]
func (h *Handler) getQuote(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	if symbol == "" {
		writeError(c, http.StatusBadRequest, errMissingSymbol)
		return
	}

	record := h.fetcher.Fetch(c.Request.Context(), symbol, c.Query("identifier"))
	if record.Status != domain.StatusOK {
		c.Set(noCacheKey, true)
	}
	c.JSON(http.StatusOK, record)
}

type runRequest struct {
	Companies []domain.CompanyRecord `json:"companies"`
}

// createRun resolves and fetches quotes for a batch of companies
// @Summary      Create run
// @Description  Run both pipeline stages for the given companies and return the report
// @Tags         runs
// @Accept       json
// @Produce      json
// @Param        run  body      runRequest  true  "Companies to process"
// @Success      200  {object}  pipeline.Report
// @Failure      400  {object}  map[string]string
// @Router       /runs [post]
func (h *Handler) createRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if len(req.Companies) == 0 {
		writeError(c, http.StatusBadRequest, errNoCompanies)
		return
	}
	if len(req.Companies) > MaxRunCompanies {
		writeError(c, http.StatusBadRequest, fmt.Errorf("%w: %d > %d", errTooManyCompanies, len(req.Companies), MaxRunCompanies))
		return
	}

	report := h.runner.Run(c.Request.Context(), req.Companies)

	if h.publisher != nil && len(report.Quotes) > 0 {
		if err := h.publisher.PublishQuotes(c.Request.Context(), report.RunID, report.Quotes); err != nil {
			h.logger.WithError(err).WithField("run_id", report.RunID).Error("publish quotes failed")
		}
	}
	c.JSON(http.StatusOK, report)
}

func writeError(c *gin.Context, status int, err error) {
	if err == nil {
		status = http.StatusInternalServerError
		err = errors.New("unknown error")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// cacheMiddleware caches GET responses in Redis.
func (h *Handler) cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cache == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := h.cacheKey(c)
		ctx := c.Request.Context()

		if cached, err := h.cache.Get(ctx, key).Result(); err == nil {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			c.Abort()
			return
		} else if !errors.Is(err, redis.Nil) {
			h.logger.WithError(err).Warn("response cache read failed")
		}

		recorder := &responseRecorder{
			ResponseWriter: c.Writer,
			status:         http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = recorder

		c.Next()

		if c.GetBool(noCacheKey) {
			return
		}
		if recorder.status >= 200 && recorder.status < 300 && recorder.body.Len() > 0 {
			if err := h.cache.Set(ctx, key, recorder.body.Bytes(), h.cacheTTL).Err(); err != nil {
				h.logger.WithError(err).Warn("response cache write failed")
			}
		}
	}
}

type responseRecorder struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if len(data) > 0 {
		r.body.Write(data)
	}
	return r.ResponseWriter.Write(data)
}

func (h *Handler) cacheKey(c *gin.Context) string {
	return fmt.Sprintf("cache:%s:%s?%s", c.Request.Method, c.Request.URL.Path, c.Request.URL.RawQuery)
}
