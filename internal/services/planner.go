package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"christmas-market-planner/internal/models"
	"christmas-market-planner/internal/parser"
)

// ItineraryArchiver hands a finished plan off for asynchronous archiving
type ItineraryArchiver interface {
	TriggerArchive(ctx context.Context, doc models.ItineraryDocument) error
}

// DocumentVersion is stamped on archived itinerary documents
const DocumentVersion = "1"

const fallbackMarketCount = 3

// TravelPlanner turns planning requests into structured travel plans
type TravelPlanner struct {
	generator PlanGenerator
	parser    *parser.Parser
	archiver  ItineraryArchiver
	metrics   *ParseMetrics
}

// NewTravelPlanner creates a planner. generator and archiver may be nil:
// without a generator every plan uses the fallback itinerary.
func NewTravelPlanner(generator PlanGenerator, p *parser.Parser, archiver ItineraryArchiver) *TravelPlanner {
	if p == nil {
		p = parser.New(nil)
	}
	return &TravelPlanner{
		generator: generator,
		parser:    p,
		archiver:  archiver,
		metrics:   GetParseMetrics(),
	}
}

// WithMetrics swaps the metrics sink, mainly for tests
func (tp *TravelPlanner) WithMetrics(metrics *ParseMetrics) *TravelPlanner {
	tp.metrics = metrics
	return tp
}

// CreatePlan generates, parses and summarizes a plan for the request
func (tp *TravelPlanner) CreatePlan(ctx context.Context, req models.TravelPlanRequest) (*models.TravelPlanResponse, error) {
	startTime := time.Now()
	prefs := req.ToPreferences()

	text, generated := tp.generate(ctx, prefs)

	plan := tp.structure(*text, req.StartDate, req.EndDate, startTime)
	plan.Generated = generated
	plan.Summary = BuildSummary(plan.Markets, prefs)
	prefs.RecommendedMarkets = plan.Markets

	log.Printf("[PLANNER] Created plan %s: %d days, tier %d, markets %v, generated=%v",
		plan.PlanID, len(plan.Days), plan.ParseTier, plan.Markets, plan.Generated)

	tp.triggerArchive(ctx, plan, req.StartDate, req.EndDate)

	return &models.TravelPlanResponse{
		Success:         true,
		TravelPlan:      *plan,
		UserPreferences: prefs,
	}, nil
}

// ParseText structures caller-supplied itinerary text without generating anything
func (tp *TravelPlanner) ParseText(itineraryText, startDate, endDate, recommendations string) *models.TravelPlan {
	text := models.TravelPlanText{
		MarketRecommendations: recommendations,
		Itinerary:             itineraryText,
	}
	return tp.structure(text, startDate, endDate, time.Now())
}

func (tp *TravelPlanner) generate(ctx context.Context, prefs models.UserPreferences) (*models.TravelPlanText, bool) {
	if tp.generator == nil {
		return FallbackPlanText(nil, prefs.StartDate), false
	}

	text, err := tp.generator.GeneratePlanText(ctx, prefs)
	tp.metrics.RecordGeneration(err == nil)
	if err != nil {
		log.Printf("[PLANNER] Plan generation failed, using fallback itinerary: %v", err)
		return FallbackPlanText(prefs.RecommendedMarkets, prefs.StartDate), false
	}
	return text, true
}

func (tp *TravelPlanner) structure(text models.TravelPlanText, startDate, endDate string, startTime time.Time) *models.TravelPlan {
	itinerary := NormalizePlanText(text.Itinerary)
	days, report := tp.parser.ParseWithReport(itinerary, startDate, endDate)

	markets := tp.parser.ExtractMarkets(NormalizePlanText(text.MarketRecommendations))
	if len(markets) == 0 {
		markets = append([]string(nil), models.DefaultRecommendedMarkets...)
	}

	backfilled := BackfillCities(days, markets)
	tp.metrics.RecordParse(report, backfilled, time.Since(startTime))
	tp.metrics.RecordActivityTypes(models.CountActivitiesByType(days))

	if report.OutOfRangeDays > 0 {
		log.Printf("[PLANNER] Itinerary has %d day(s) beyond the %d-day trip", report.OutOfRangeDays, report.TripDays)
	}

	return &models.TravelPlan{
		TravelPlanText: text,
		PlanID:         models.GeneratePlanID(),
		Days:           days,
		Markets:        markets,
		ParseTier:      report.Tier,
		Headline:       models.BuildHeadline(startDate, endDate, markets, len(days)),
		CreatedAt:      time.Now().UTC(),
	}
}

func (tp *TravelPlanner) triggerArchive(ctx context.Context, plan *models.TravelPlan, startDate, endDate string) {
	if tp.archiver == nil {
		return
	}

	doc := models.ItineraryDocument{
		PlanID:     plan.PlanID,
		StartDate:  startDate,
		EndDate:    endDate,
		Markets:    plan.Markets,
		Days:       plan.Days,
		ParseTier:  plan.ParseTier,
		Summary:    plan.Summary,
		ArchivedAt: time.Now().UTC(),
		Version:    DocumentVersion,
	}

	// Archiving is best effort; the plan is already built
	if err := tp.archiver.TriggerArchive(ctx, doc); err != nil {
		log.Printf("[PLANNER] Failed to trigger archive for plan %s: %v", plan.PlanID, err)
	}
}

// BackfillCities replaces unresolved day cities with the recommended markets,
// the i-th day taking the i-th market and later days the last one.
// It returns the number of days changed.
func BackfillCities(days []models.ItineraryDay, markets []string) int {
	if len(markets) == 0 {
		return 0
	}

	changed := 0
	for i := range days {
		if days[i].HasResolvedCity() {
			continue
		}
		idx := i
		if idx >= len(markets) {
			idx = len(markets) - 1
		}
		days[i].City = markets[idx]
		changed++
	}
	return changed
}

// BuildSummary renders the short plain-text overview shown above the plan
func BuildSummary(markets []string, prefs models.UserPreferences) string {
	recommended := models.NotSpecified
	if len(markets) > 0 {
		recommended = strings.Join(markets, ", ")
	}

	return fmt.Sprintf("Travel Plan Summary:\n- Recommended Markets: %s\n- Duration: %s\n- Budget: %s\n- Departure: %s",
		recommended,
		orNotSpecified(prefs.Duration),
		orNotSpecified(prefs.Budget),
		orNotSpecified(prefs.DepartureCity),
	)
}

// FallbackItinerary writes a simple day-per-market itinerary in the same
// "Day N: City" format the generator is asked for
func FallbackItinerary(markets []string) string {
	if len(markets) == 0 {
		markets = models.DefaultRecommendedMarkets
	}
	if len(markets) > fallbackMarketCount {
		markets = markets[:fallbackMarketCount]
	}

	sections := make([]string, 0, len(markets))
	for i, market := range markets {
		sections = append(sections, fmt.Sprintf(
			"Day %d: %s\n09:00 Explore the main Christmas market and sample local treats.\n13:00 Visit nearby museums and warm cafés.\n18:00 Enjoy evening lights before settling into your hotel.",
			i+1, market))
	}
	return strings.Join(sections, "\n\n")
}

// FallbackPlanText is used in place of generated text when generation is unavailable
func FallbackPlanText(markets []string, startDate string) *models.TravelPlanText {
	if len(markets) == 0 {
		markets = models.DefaultRecommendedMarkets
	}

	when := "during the Advent season"
	if startDate != "" {
		when = "starting " + startDate
	}

	return &models.TravelPlanText{
		MarketRecommendations: "Recommended markets: " + strings.Join(markets, ", ") + ".",
		Itinerary:             FallbackItinerary(markets),
		Transport:             "Regional trains connect the market cities; book longer legs in advance.",
		Accommodations:        "Stay close to the old town of each city to walk to the markets " + when + ".",
		CulturalInsights:      "Try mulled wine and local gingerbread, and bring cash for smaller stalls.",
	}
}

func orNotSpecified(value string) string {
	if strings.TrimSpace(value) == "" {
		return models.NotSpecified
	}
	return value
}
