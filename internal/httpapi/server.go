// Package httpapi serves the aggregated tables to the dashboard as JSON.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ginjaninja78/honey-report/internal/metrics"
	"github.com/ginjaninja78/honey-report/internal/query"
	"github.com/ginjaninja78/honey-report/internal/states"
	"github.com/ginjaninja78/honey-report/internal/types"
)

// Dataset is the pair of output tables served by the API.
type Dataset struct {
	Production *types.Table
	Colony     *types.Table
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	addr    string
	data    Dataset
	logger  *zap.Logger
	metrics *metrics.Metrics
	engine  *gin.Engine
}

// New constructs a server with routes and middleware. logger and m may be nil.
func New(addr string, data Dataset, logger *zap.Logger, m *metrics.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger, m))
	engine.Use(corsMiddleware())

	server := &Server{addr: addr, data: data, logger: logger, metrics: m, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", zap.String("addr", s.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
	}

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/states", s.handleStates)
		v1.GET("/colony/periods", s.handleColonyPeriods)
		v1.GET("/colony/map", s.handleColonyMap)
		v1.GET("/colony/states/:state", s.handleColonySeries)
		v1.GET("/production/years", s.handleProductionYears)
		v1.GET("/production/top", s.handleProductionTop)
	}
}

func requestLogger(logger *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.HTTPRequest(route, status)
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) handleStates(c *gin.Context) {
	names := states.Names()
	out := make([]gin.H, 0, len(names))
	for _, name := range names {
		code, _ := states.Code(name)
		out = append(out, gin.H{"label": name, "value": code})
	}
	c.JSON(http.StatusOK, gin.H{"states": out})
}

func (s *Server) colonyTable(c *gin.Context) (*types.Table, bool) {
	if s.data.Colony == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "colony data not loaded"})
		return nil, false
	}
	return s.data.Colony, true
}

func (s *Server) productionTable(c *gin.Context) (*types.Table, bool) {
	if s.data.Production == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "production data not loaded"})
		return nil, false
	}
	return s.data.Production, true
}

func (s *Server) handleColonyPeriods(c *gin.Context) {
	table, ok := s.colonyTable(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"periods": query.Periods(table)})
}

func (s *Server) handleColonyMap(c *gin.Context) {
	table, ok := s.colonyTable(c)
	if !ok {
		return
	}

	period := c.Query("period")
	metric := c.DefaultQuery("metric", "varroa_mites")
	if period == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period is required"})
		return
	}

	values, err := query.ByPeriod(table, period, metric)
	if err != nil {
		writeQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period": period,
		"metric": metric,
		"count":  len(values),
		"states": values,
	})
}

func (s *Server) handleColonySeries(c *gin.Context) {
	table, ok := s.colonyTable(c)
	if !ok {
		return
	}

	state := c.Param("state")
	series, err := query.ByState(table, state, query.ParseMetrics(c.Query("metrics")))
	if err != nil {
		writeQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":  state,
		"count":  len(series),
		"series": series,
	})
}

func (s *Server) handleProductionYears(c *gin.Context) {
	table, ok := s.productionTable(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"years": query.Years(table)})
}

func (s *Server) handleProductionTop(c *gin.Context) {
	table, ok := s.productionTable(c)
	if !ok {
		return
	}

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}

	n := query.DefaultTopN
	if nStr := c.Query("n"); nStr != "" {
		parsed, err := strconv.Atoi(nStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid n"})
			return
		}
		n = parsed
	}

	metric := c.DefaultQuery("metric", "honey_colonies")
	ranked, err := query.TopN(table, year, metric, n)
	if err != nil {
		writeQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":   year,
		"metric": metric,
		"count":  len(ranked),
		"states": ranked,
	})
}

func writeQueryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, query.ErrUnknownMetric):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, query.ErrUnknownState):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
