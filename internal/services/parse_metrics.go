package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"christmas-market-planner/internal/parser"
)

// ParseMetrics tracks how well generated itineraries are being structured
type ParseMetrics struct {
	mu                  sync.RWMutex
	TotalParses         int64            `json:"total_parses"`
	ParsesByTier        map[int]int64    `json:"parses_by_tier"`
	TotalDays           int64            `json:"total_days"`
	TotalActivities     int64            `json:"total_activities"`
	ActivitiesByType    map[string]int64 `json:"activities_by_type"`
	UnresolvedCities    int64            `json:"unresolved_cities"`
	BackfilledCities    int64            `json:"backfilled_cities"`
	OutOfRangeDays      int64            `json:"out_of_range_days"`
	LinesRejected       int64            `json:"lines_rejected"`
	TotalGenerations    int64            `json:"total_generations"`
	FailedGenerations   int64            `json:"failed_generations"`
	AvgProcessingTimeMs float64          `json:"avg_processing_time_ms"`
	AlertThresholds     *AlertThresholds `json:"alert_thresholds"`
	LastUpdated         time.Time        `json:"last_updated"`
}

// AlertThresholds defines when to trigger alerts
type AlertThresholds struct {
	MaxFallbackRate       float64 `json:"max_fallback_rate"`        // Alert if the share of tier 2/3 parses exceeds this
	MaxGenerationFailRate float64 `json:"max_generation_fail_rate"` // Alert if generation fails more often than this
	MaxProcessingTimeMs   int64   `json:"max_processing_time_ms"`   // Alert if planning takes longer than this
	MinSamples            int64   `json:"min_samples"`              // Rates are only checked after this many parses
}

// ParseAlert represents an alert condition
type ParseAlert struct {
	Type      string    `json:"type"`     // fallback_rate|generation_failures|processing_time
	Severity  string    `json:"severity"` // warning|error
	Message   string    `json:"message"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// Global metrics instance
var globalParseMetrics *ParseMetrics
var metricsOnce sync.Once

// GetParseMetrics returns the global metrics instance
func GetParseMetrics() *ParseMetrics {
	metricsOnce.Do(func() {
		globalParseMetrics = NewParseMetrics()
	})
	return globalParseMetrics
}

// NewParseMetrics creates an empty metrics instance with default thresholds
func NewParseMetrics() *ParseMetrics {
	return &ParseMetrics{
		ParsesByTier:     make(map[int]int64),
		ActivitiesByType: make(map[string]int64),
		AlertThresholds: &AlertThresholds{
			MaxFallbackRate:       0.3,   // 30%
			MaxGenerationFailRate: 0.2,   // 20%
			MaxProcessingTimeMs:   30000, // 30 seconds
			MinSamples:            10,
		},
		LastUpdated: time.Now(),
	}
}

// RecordParse records the outcome of one itinerary parse
func (pm *ParseMetrics) RecordParse(report parser.Report, backfilled int, processingTime time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.TotalParses++
	pm.ParsesByTier[report.Tier]++
	pm.TotalDays += int64(report.Days)
	pm.TotalActivities += int64(report.Activities)
	pm.UnresolvedCities += int64(report.UnresolvedCities)
	pm.BackfilledCities += int64(backfilled)
	pm.OutOfRangeDays += int64(report.OutOfRangeDays)
	pm.LinesRejected += int64(report.LinesRejected)

	processingTimeMs := float64(processingTime.Nanoseconds()) / 1e6
	if pm.AvgProcessingTimeMs == 0 {
		pm.AvgProcessingTimeMs = processingTimeMs
	} else {
		// Exponential moving average
		pm.AvgProcessingTimeMs = 0.8*pm.AvgProcessingTimeMs + 0.2*processingTimeMs
	}

	pm.LastUpdated = time.Now()

	log.Printf("[METRICS] Recorded parse: Tier=%d, Days=%d, Activities=%d, Unresolved=%d, Backfilled=%d, Time=%.1fms",
		report.Tier, report.Days, report.Activities, report.UnresolvedCities, backfilled, processingTimeMs)
}

// RecordActivityTypes adds per-type activity counts, as returned by
// models.CountActivitiesByType
func (pm *ParseMetrics) RecordActivityTypes(counts map[string]int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	for activityType, count := range counts {
		pm.ActivitiesByType[activityType] += int64(count)
	}
	pm.LastUpdated = time.Now()
}

// RecordGeneration records an attempt to generate plan text upstream
func (pm *ParseMetrics) RecordGeneration(success bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.TotalGenerations++
	if !success {
		pm.FailedGenerations++
	}
	pm.LastUpdated = time.Now()
}

// FallbackRate is the share of parses that needed the paragraph or single-day tier
func (pm *ParseMetrics) FallbackRate() float64 {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.fallbackRate()
}

func (pm *ParseMetrics) fallbackRate() float64 {
	if pm.TotalParses == 0 {
		return 0
	}
	fallbacks := pm.ParsesByTier[parser.TierParagraphs] + pm.ParsesByTier[parser.TierSingleDay]
	return float64(fallbacks) / float64(pm.TotalParses)
}

// CheckAlerts checks for alert conditions and returns any active alerts
func (pm *ParseMetrics) CheckAlerts() []ParseAlert {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	var alerts []ParseAlert
	now := time.Now()

	if pm.TotalParses >= pm.AlertThresholds.MinSamples {
		if rate := pm.fallbackRate(); rate > pm.AlertThresholds.MaxFallbackRate {
			alerts = append(alerts, ParseAlert{
				Type:      "fallback_rate",
				Severity:  "warning",
				Message:   fmt.Sprintf("Fallback parse rate (%.1f%%) is above threshold (%.1f%%)", rate*100, pm.AlertThresholds.MaxFallbackRate*100),
				Metric:    "fallback_rate",
				Value:     rate,
				Threshold: pm.AlertThresholds.MaxFallbackRate,
				Timestamp: now,
			})
		}
	}

	if pm.TotalGenerations >= pm.AlertThresholds.MinSamples {
		rate := float64(pm.FailedGenerations) / float64(pm.TotalGenerations)
		if rate > pm.AlertThresholds.MaxGenerationFailRate {
			alerts = append(alerts, ParseAlert{
				Type:      "generation_failures",
				Severity:  "error",
				Message:   fmt.Sprintf("Plan generation failure rate (%.1f%%) is above threshold (%.1f%%)", rate*100, pm.AlertThresholds.MaxGenerationFailRate*100),
				Metric:    "generation_fail_rate",
				Value:     rate,
				Threshold: pm.AlertThresholds.MaxGenerationFailRate,
				Timestamp: now,
			})
		}
	}

	if pm.AvgProcessingTimeMs > float64(pm.AlertThresholds.MaxProcessingTimeMs) {
		alerts = append(alerts, ParseAlert{
			Type:      "processing_time",
			Severity:  "warning",
			Message:   fmt.Sprintf("Average planning time (%.1fms) exceeds threshold (%dms)", pm.AvgProcessingTimeMs, pm.AlertThresholds.MaxProcessingTimeMs),
			Metric:    "avg_processing_time",
			Value:     pm.AvgProcessingTimeMs,
			Threshold: float64(pm.AlertThresholds.MaxProcessingTimeMs),
			Timestamp: now,
		})
	}

	return alerts
}

// GetDashboardMetrics returns metrics formatted for dashboard display
func (pm *ParseMetrics) GetDashboardMetrics() map[string]interface{} {
	alerts := pm.CheckAlerts()

	pm.mu.RLock()
	defer pm.mu.RUnlock()

	var avgDays, avgActivities float64
	if pm.TotalParses > 0 {
		avgDays = float64(pm.TotalDays) / float64(pm.TotalParses)
		avgActivities = float64(pm.TotalActivities) / float64(pm.TotalParses)
	}

	tiers := make(map[string]int64, len(pm.ParsesByTier))
	for tier, count := range pm.ParsesByTier {
		tiers[fmt.Sprintf("tier_%d", tier)] = count
	}

	byType := make(map[string]int64, len(pm.ActivitiesByType))
	for activityType, count := range pm.ActivitiesByType {
		byType[activityType] = count
	}

	return map[string]interface{}{
		"parsing": map[string]interface{}{
			"total_parses":       pm.TotalParses,
			"by_tier":            tiers,
			"fallback_rate":      pm.fallbackRate(),
			"avg_days":           avgDays,
			"avg_activities":     avgActivities,
			"activities_by_type": byType,
			"unresolved_cities":  pm.UnresolvedCities,
			"backfilled_cities":  pm.BackfilledCities,
			"out_of_range_days":  pm.OutOfRangeDays,
			"lines_rejected":     pm.LinesRejected,
		},
		"generation": map[string]interface{}{
			"total_attempts": pm.TotalGenerations,
			"failed":         pm.FailedGenerations,
		},
		"avg_processing_time_ms": pm.AvgProcessingTimeMs,
		"alerts":                 alerts,
		"last_updated":           pm.LastUpdated,
	}
}

// ResetMetrics resets all metrics (useful for testing)
func (pm *ParseMetrics) ResetMetrics() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.TotalParses = 0
	pm.ParsesByTier = make(map[int]int64)
	pm.TotalDays = 0
	pm.TotalActivities = 0
	pm.ActivitiesByType = make(map[string]int64)
	pm.UnresolvedCities = 0
	pm.BackfilledCities = 0
	pm.OutOfRangeDays = 0
	pm.LinesRejected = 0
	pm.TotalGenerations = 0
	pm.FailedGenerations = 0
	pm.AvgProcessingTimeMs = 0
	pm.LastUpdated = time.Now()

	log.Printf("[METRICS] Metrics reset")
}

// LogMetricsSummary logs a summary of current metrics
func (pm *ParseMetrics) LogMetricsSummary() {
	alerts := pm.CheckAlerts()

	pm.mu.RLock()
	defer pm.mu.RUnlock()

	log.Printf("[METRICS] === PARSE METRICS SUMMARY ===")
	log.Printf("[METRICS] Total Parses: %d (Tier 1: %d, Tier 2: %d, Tier 3: %d, Fallback Rate: %.1f%%)",
		pm.TotalParses, pm.ParsesByTier[parser.TierDayMarkers], pm.ParsesByTier[parser.TierParagraphs],
		pm.ParsesByTier[parser.TierSingleDay], pm.fallbackRate()*100)
	log.Printf("[METRICS] Days: %d, Activities: %d, Unresolved Cities: %d, Backfilled: %d",
		pm.TotalDays, pm.TotalActivities, pm.UnresolvedCities, pm.BackfilledCities)
	log.Printf("[METRICS] Generations: %d (Failed: %d)", pm.TotalGenerations, pm.FailedGenerations)

	if len(alerts) > 0 {
		log.Printf("[METRICS] Active Alerts: %d", len(alerts))
		for _, alert := range alerts {
			log.Printf("[METRICS] ALERT [%s]: %s", alert.Severity, alert.Message)
		}
	}
	log.Printf("[METRICS] =============================")
}
