package usecase

import (
	"context"
	"fmt"
	"time"

	"attrgo/internal/domain"
	"attrgo/pkg/logger"
	"attrgo/pkg/metrics"
)

// ResultService answers queries over stored attribution results and pushes
// them to the configured export sink.
type ResultService struct {
	resultRepo domain.ResultRepository
	sinkClient domain.SinkClient
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewResultService(
	resultRepo domain.ResultRepository,
	sinkClient domain.SinkClient,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *ResultService {
	return &ResultService{
		resultRepo: resultRepo,
		sinkClient: sinkClient,
		logger:     logger,
		metrics:    metrics,
	}
}

// GetResult returns the stored result for one conversion.
func (s *ResultService) GetResult(ctx context.Context, conversionID string) (*domain.AttributionResult, error) {
	result, err := s.resultRepo.GetByConversionID(ctx, conversionID)
	if err != nil {
		return nil, fmt.Errorf("result for conversion %s: %w", conversionID, err)
	}
	s.metrics.RecordResultQuery("get")
	return result, nil
}

// ListResults returns a page of stored results matching the filter.
func (s *ResultService) ListResults(ctx context.Context, filter domain.ResultFilter) (*domain.ResultPage, error) {
	page, err := s.resultRepo.QueryByFilter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	s.metrics.RecordResultQuery("list")

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"count":   len(page.Data),
		"total":   page.Total,
		"channel": filter.Channel,
	}).Info("Listed attribution results")
	return page, nil
}

// Summary aggregates the stored results in a time range: overall channel
// credit breakdown, attributed value totals, and journey statistics.
func (s *ResultService) Summary(ctx context.Context, from, to time.Time) (map[string]any, error) {
	page, err := s.resultRepo.QueryByFilter(ctx, domain.ResultFilter{
		From:  &from,
		To:    &to,
		Limit: -1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query results for summary: %w", err)
	}

	channelCredit := make(map[string]float64)
	models := make(map[string]int)
	var totalValue float64
	var totalJourneyMinutes int64
	var unattributable int

	for _, result := range page.Data {
		for channel, credit := range result.ChannelBreakdown {
			channelCredit[channel] += credit
		}
		models[string(result.Model)]++
		totalValue += result.ConversionValue
		totalJourneyMinutes += result.JourneyDurationMinutes
		if result.TotalCredit == 0 {
			unattributable++
		}
	}

	var avgJourneyMinutes float64
	if len(page.Data) > 0 {
		avgJourneyMinutes = float64(totalJourneyMinutes) / float64(len(page.Data))
	}

	summary := map[string]any{
		"period": map[string]any{
			"from": from.Format(time.RFC3339),
			"to":   to.Format(time.RFC3339),
		},
		"conversions":             page.Total,
		"channel_credit":          channelCredit,
		"models":                  models,
		"total_conversion_value":  totalValue,
		"avg_journey_minutes":     avgJourneyMinutes,
		"unattributable_results":  unattributable,
	}

	s.metrics.RecordResultQuery("summary")
	s.logger.WithContext(ctx).WithField("conversions", page.Total).Info("Attribution summary generated")
	return summary, nil
}

// ExportResults pushes every result computed for conversions on the given
// day to the external sink.
func (s *ResultService) ExportResults(ctx context.Context, date time.Time) error {
	log := s.logger.WithContext(ctx).WithField("date", date.Format("2006-01-02"))

	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1).Add(-time.Nanosecond)

	page, err := s.resultRepo.QueryByFilter(ctx, domain.ResultFilter{
		From:  &from,
		To:    &to,
		Limit: -1,
	})
	if err != nil {
		return fmt.Errorf("failed to query results for export: %w", err)
	}
	if len(page.Data) == 0 {
		log.Warn("No attribution results found for export date")
		return fmt.Errorf("no results found for date %s", date.Format("2006-01-02"))
	}

	if err := s.sinkClient.Export(ctx, page.Data, date); err != nil {
		log.WithError(err).Error("Failed to export attribution results")
		return fmt.Errorf("failed to export results: %w", err)
	}

	s.metrics.RecordResultQuery("export")
	log.WithField("records", len(page.Data)).Info("Attribution results exported")
	return nil
}
