package delivery

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"attrgo/internal/domain"
	"attrgo/internal/usecase"
	"attrgo/pkg/logger"
	"attrgo/pkg/metrics"
)

// handles HTTP requests
type HTTPHandlers struct {
	attributionService *usecase.AttributionService
	configService      *usecase.ConfigService
	resultService      *usecase.ResultService
	logger             *logger.Logger
	metrics            *metrics.Metrics
}

func NewHTTPHandlers(
	attributionService *usecase.AttributionService,
	configService *usecase.ConfigService,
	resultService *usecase.ResultService,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *HTTPHandlers {
	return &HTTPHandlers{
		attributionService: attributionService,
		configService:      configService,
		resultService:      resultService,
		logger:             logger,
		metrics:            metrics,
	}
}

// ComputeAttribution attributes a single conversion in real time.
func (h *HTTPHandlers) ComputeAttribution(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := requestIDFrom(c)
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	var event domain.ConversionEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		h.metrics.RecordHTTPRequest("POST", "/attribution/compute", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}
	if event.ConversionID == "" || event.Type == "" || event.Timestamp.IsZero() {
		h.metrics.RecordHTTPRequest("POST", "/attribution/compute", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Missing required fields",
			"message":    "conversion_id, conversion_type and conversion_time are required",
			"request_id": requestID,
		})
		return
	}

	result, err := h.attributionService.ComputeAttribution(ctx, event, c.Query("config_id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrConfigNotFound) {
			status = http.StatusNotFound
		}
		h.metrics.RecordHTTPRequest("POST", "/attribution/compute", strconv.Itoa(status), time.Since(start))
		h.logger.WithContext(ctx).WithError(err).Error("Attribution computation failed")
		c.JSON(status, gin.H{
			"error":      "Attribution computation failed",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("POST", "/attribution/compute", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"data":       result,
		"request_id": requestID,
	})
}

// RecalculateRun re-attributes every conversion in a time range.
func (h *HTTPHandlers) RecalculateRun(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := requestIDFrom(c)
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	from, to, err := parseTimeRange(c)
	if err != nil {
		h.metrics.RecordHTTPRequest("POST", "/attribution/recalculate", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid time range",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	stats, err := h.attributionService.RecalculateRange(ctx, from, to, c.Query("config_id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrConfigNotFound) {
			status = http.StatusNotFound
		}
		h.metrics.RecordHTTPRequest("POST", "/attribution/recalculate", strconv.Itoa(status), time.Since(start))
		h.logger.WithContext(ctx).WithError(err).Error("Batch recalculation failed")
		c.JSON(status, gin.H{
			"error":      "Batch recalculation failed",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("POST", "/attribution/recalculate", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"processed":  stats.Processed,
		"succeeded":  stats.Succeeded,
		"failed":     stats.Failed,
		"request_id": requestID,
	})
}

// GetResult returns the stored attribution result for one conversion.
func (h *HTTPHandlers) GetResult(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := requestIDFrom(c)
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	result, err := h.resultService.GetResult(ctx, c.Param("conversion_id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrResultNotFound) {
			status = http.StatusNotFound
		}
		h.metrics.RecordHTTPRequest("GET", "/attribution/results/:conversion_id", strconv.Itoa(status), time.Since(start))
		c.JSON(status, gin.H{
			"error":      "Failed to retrieve result",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("GET", "/attribution/results/:conversion_id", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"data":       result,
		"request_id": requestID,
	})
}

// ListResults returns a page of stored results.
func (h *HTTPHandlers) ListResults(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := requestIDFrom(c)
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	filter, err := parseResultFilter(c)
	if err != nil {
		h.metrics.RecordHTTPRequest("GET", "/attribution/results", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid parameters",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	page, err := h.resultService.ListResults(ctx, filter)
	if err != nil {
		h.metrics.RecordHTTPRequest("GET", "/attribution/results", "500", time.Since(start))
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list attribution results")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Failed to retrieve results",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("GET", "/attribution/results", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"data":       page.Data,
		"total":      page.Total,
		"limit":      page.Limit,
		"offset":     page.Offset,
		"has_more":   page.HasMore,
		"request_id": requestID,
	})
}

// GetSummary aggregates stored results over a time range.
func (h *HTTPHandlers) GetSummary(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := requestIDFrom(c)
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	from, to, err := parseTimeRange(c)
	if err != nil {
		h.metrics.RecordHTTPRequest("GET", "/attribution/summary", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid time range",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	summary, err := h.resultService.Summary(ctx, from, to)
	if err != nil {
		h.metrics.RecordHTTPRequest("GET", "/attribution/summary", "500", time.Since(start))
		h.logger.WithContext(ctx).WithError(err).Error("Failed to build attribution summary")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Failed to build summary",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("GET", "/attribution/summary", "200", time.Since(start))
	summary["request_id"] = requestID
	c.JSON(http.StatusOK, summary)
}

// IngestTouchpoints records raw touchpoints from the collection side.
func (h *HTTPHandlers) IngestTouchpoints(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := requestIDFrom(c)
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	var tps []domain.Touchpoint
	if err := c.ShouldBindJSON(&tps); err != nil {
		h.metrics.RecordHTTPRequest("POST", "/touchpoints", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	if err := h.attributionService.RecordTouchpoints(ctx, tps); err != nil {
		h.metrics.RecordHTTPRequest("POST", "/touchpoints", "500", time.Since(start))
		h.logger.WithContext(ctx).WithError(err).Error("Failed to store touchpoints")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Failed to store touchpoints",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("POST", "/touchpoints", "202", time.Since(start))
	c.JSON(http.StatusAccepted, gin.H{
		"stored":     len(tps),
		"request_id": requestID,
	})
}

// CreateConfig stores a new attribution config.
func (h *HTTPHandlers) CreateConfig(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := requestIDFrom(c)
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	var cfg domain.AttributionConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		h.metrics.RecordHTTPRequest("POST", "/configs", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	created, err := h.configService.Create(ctx, cfg)
	if err != nil {
		h.metrics.RecordHTTPRequest("POST", "/configs", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Failed to create config",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("POST", "/configs", "201", time.Since(start))
	c.JSON(http.StatusCreated, gin.H{
		"data":       created,
		"request_id": requestID,
	})
}

// GetConfig returns one attribution config.
func (h *HTTPHandlers) GetConfig(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := requestIDFrom(c)
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	cfg, err := h.configService.Get(ctx, c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrConfigNotFound) {
			status = http.StatusNotFound
		}
		h.metrics.RecordHTTPRequest("GET", "/configs/:id", strconv.Itoa(status), time.Since(start))
		c.JSON(status, gin.H{
			"error":      "Failed to retrieve config",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("GET", "/configs/:id", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"data":       cfg,
		"request_id": requestID,
	})
}

// UpdateConfig mutates an existing attribution config.
func (h *HTTPHandlers) UpdateConfig(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := requestIDFrom(c)
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	var cfg domain.AttributionConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		h.metrics.RecordHTTPRequest("PUT", "/configs/:id", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}
	cfg.ID = c.Param("id")

	updated, err := h.configService.Update(ctx, cfg)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrConfigNotFound) {
			status = http.StatusNotFound
		}
		h.metrics.RecordHTTPRequest("PUT", "/configs/:id", strconv.Itoa(status), time.Since(start))
		c.JSON(status, gin.H{
			"error":      "Failed to update config",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("PUT", "/configs/:id", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"data":       updated,
		"request_id": requestID,
	})
}

// ExportRun pushes results computed for a specific day to the sink.
func (h *HTTPHandlers) ExportRun(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := requestIDFrom(c)
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	dateStr := c.Query("date")
	if dateStr == "" {
		h.metrics.RecordHTTPRequest("POST", "/export/run", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Missing required parameter",
			"message":    "date parameter is required",
			"request_id": requestID,
		})
		return
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		h.metrics.RecordHTTPRequest("POST", "/export/run", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid date format",
			"message":    "Date must be in YYYY-MM-DD format",
			"request_id": requestID,
		})
		return
	}

	if err := h.resultService.ExportResults(ctx, date); err != nil {
		h.metrics.RecordHTTPRequest("POST", "/export/run", "500", time.Since(start))
		h.logger.WithContext(ctx).WithError(err).Error("Failed to export attribution results")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Export failed",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("POST", "/export/run", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"message":    "Export completed successfully",
		"date":       date.Format("2006-01-02"),
		"request_id": requestID,
	})
}

// HealthCheck returns the health status of the service.
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	h.metrics.RecordHTTPRequest("GET", "/health", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "attribution-engine",
		"request_id": requestIDFrom(c),
	})
}

func requestIDFrom(c *gin.Context) string {
	if requestID := c.GetString("request_id"); requestID != "" {
		return requestID
	}
	return uuid.New().String()
}

// parseTimeRange reads from/to query parameters, RFC3339 or YYYY-MM-DD.
// Defaults: last 30 days.
func parseTimeRange(c *gin.Context) (from, to time.Time, err error) {
	from = time.Now().UTC().AddDate(0, 0, -30)
	to = time.Now().UTC()

	if fromStr := c.Query("from"); fromStr != "" {
		from, err = parseTimeParam(fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if toStr := c.Query("to"); toStr != "" {
		to, err = parseTimeParam(toStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return from, to, nil
}

func parseTimeParam(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

func parseResultFilter(c *gin.Context) (domain.ResultFilter, error) {
	filter := domain.ResultFilter{
		Channel: c.Query("channel"),
		Model:   c.Query("model"),
	}

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := parseTimeParam(fromStr)
		if err != nil {
			return filter, err
		}
		filter.From = &from
	}
	if toStr := c.Query("to"); toStr != "" {
		to, err := parseTimeParam(toStr)
		if err != nil {
			return filter, err
		}
		filter.To = &to
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return filter, err
		}
		filter.Limit = limit
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return filter, err
		}
		filter.Offset = offset
	}
	return filter, nil
}
