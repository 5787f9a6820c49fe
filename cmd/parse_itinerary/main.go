package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	_ "github.com/joho/godotenv/autoload"

	"christmas-market-planner/internal/export"
	"christmas-market-planner/internal/models"
	"christmas-market-planner/internal/parser"
	"christmas-market-planner/internal/services"
)

type options struct {
	file            string
	recommendations string
	start           string
	end             string
	format          string
	vocabulary      string
	timezone        string
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "itinerary text file (default: stdin)")
	flag.StringVar(&opts.recommendations, "recommendations", "", "market recommendations text file")
	flag.StringVar(&opts.start, "start", "", "trip start date, YYYY-MM-DD")
	flag.StringVar(&opts.end, "end", "", "trip end date, YYYY-MM-DD")
	flag.StringVar(&opts.format, "format", "json", "output format: json|days|ics")
	flag.StringVar(&opts.vocabulary, "vocabulary", os.Getenv("VOCABULARY_FILE"), "YAML vocabulary file")
	flag.StringVar(&opts.timezone, "timezone", "", "IANA zone of the activity times for ics output")
	flag.Parse()

	if err := run(opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "parse_itinerary: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, stdin io.Reader, stdout io.Writer) error {
	itinerary, err := readInput(opts.file, stdin)
	if err != nil {
		return err
	}

	var recommendations string
	if opts.recommendations != "" {
		data, err := os.ReadFile(opts.recommendations)
		if err != nil {
			return fmt.Errorf("failed to read recommendations: %w", err)
		}
		recommendations = string(data)
	}

	var vocab *parser.Vocabulary
	if opts.vocabulary != "" {
		if vocab, err = parser.LoadVocabulary(opts.vocabulary); err != nil {
			return err
		}
	}

	planner := services.NewTravelPlanner(nil, parser.New(vocab), nil).WithMetrics(services.NewParseMetrics())
	plan := planner.ParseText(itinerary, opts.start, opts.end, recommendations)

	switch strings.ToLower(opts.format) {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	case "days":
		data, err := export.ToJSON(plan.Days)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	case "ics":
		return writeICS(stdout, plan, opts)
	default:
		return fmt.Errorf("unknown format %q (want json, days or ics)", opts.format)
	}
}

func writeICS(w io.Writer, plan *models.TravelPlan, opts options) error {
	if opts.start == "" {
		return fmt.Errorf("-start is required for ics output")
	}

	icsOpts := export.Options{PlanID: plan.PlanID, CalendarName: plan.Headline}
	if opts.timezone != "" {
		loc, err := time.LoadLocation(opts.timezone)
		if err != nil {
			return fmt.Errorf("unknown timezone %q: %w", opts.timezone, err)
		}
		icsOpts.Location = loc
	}

	ics, err := export.ToICS(plan.Days, opts.start, icsOpts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, ics)
	return err
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read itinerary: %w", err)
	}
	return string(data), nil
}
