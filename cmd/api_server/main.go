package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	_ "github.com/joho/godotenv/autoload"

	"christmas-market-planner/internal/api"
	"christmas-market-planner/internal/services"
)

func main() {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":5000"
	}

	// AWS is only needed for archiving and favorites
	var awsCfg *aws.Config
	if os.Getenv("ARCHIVER_FUNCTION_NAME") != "" || os.Getenv("SAVED_ITINERARIES_TABLE") != "" {
		cfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			log.Fatalf("Failed to load AWS config: %v", err)
		}
		awsCfg = &cfg
	}

	planner, err := services.NewTravelPlannerFromEnv(awsCfg)
	if err != nil {
		log.Fatalf("Failed to initialize planner: %v", err)
	}

	var favorites api.FavoritesStore
	if awsCfg != nil {
		if store := services.NewSavedItineraryStoreFromEnv(*awsCfg); store != nil {
			favorites = store
		}
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(api.NewHandler(planner, favorites), api.RouterConfigFromEnv()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[API] Christmas Market Travel Agent API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Printf("[API] Shutting down")
	services.GetParseMetrics().LogMetricsSummary()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
