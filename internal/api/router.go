package api

import (
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

// RouterConfig tunes the HTTP middleware stack
type RouterConfig struct {
	RateLimitRPS   float64       // per client; <= 0 disables limiting
	RateLimitBurst int           // defaults to twice the rate
	Timeout        time.Duration // request timeout, 60s when zero
}

// RouterConfigFromEnv reads RATE_LIMIT_RPS
func RouterConfigFromEnv() RouterConfig {
	cfg := RouterConfig{RateLimitRPS: 2}
	if value := os.Getenv("RATE_LIMIT_RPS"); value != "" {
		if rps, err := strconv.ParseFloat(value, 64); err == nil {
			cfg.RateLimitRPS = rps
		} else {
			log.Printf("[API] Ignoring invalid RATE_LIMIT_RPS %q", value)
		}
	}
	return cfg
}

// NewRouter wires the handler into a chi router
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	timeout := cfg.Timeout
	if timeout <= 0 {
		// Plan generation waits on the model
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))
	r.Use(corsMiddleware)
	if cfg.RateLimitRPS > 0 {
		r.Use(NewClientRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", serveJSON(func(r *http.Request, body []byte) (interface{}, int) {
			return h.Health()
		}))
		r.Get("/markets", serveJSON(func(r *http.Request, body []byte) (interface{}, int) {
			return h.Markets()
		}))
		r.Get("/metrics", serveJSON(func(r *http.Request, body []byte) (interface{}, int) {
			return h.Metrics()
		}))
		r.Post("/plan", serveJSON(func(r *http.Request, body []byte) (interface{}, int) {
			return h.Plan(r.Context(), body)
		}))
		r.Post("/parse", serveJSON(func(r *http.Request, body []byte) (interface{}, int) {
			return h.Parse(r.Context(), body)
		}))
		r.Post("/itineraries/export", func(w http.ResponseWriter, r *http.Request) {
			body, ok := readBody(w, r)
			if !ok {
				return
			}
			ics, errBody, status := h.Export(r.Context(), body)
			if status != http.StatusOK {
				writeJSON(w, errBody, status)
				return
			}
			w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
			w.Header().Set("Content-Disposition", `attachment; filename="itinerary.ics"`)
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, ics)
		})
		r.Post("/favorites", serveJSON(func(r *http.Request, body []byte) (interface{}, int) {
			return h.SaveFavorite(r.Context(), body)
		}))
		r.Get("/favorites", serveJSON(func(r *http.Request, body []byte) (interface{}, int) {
			query := r.URL.Query()
			return h.ListFavorites(r.Context(), query.Get("user_id"), query.Get("limit"))
		}))
		r.Delete("/favorites/{id}", serveJSON(func(r *http.Request, body []byte) (interface{}, int) {
			return h.DeleteFavorite(r.Context(), r.URL.Query().Get("user_id"), chi.URLParam(r, "id"))
		}))
	})

	return r
}

// serveJSON reads the body of POST requests and writes the endpoint result as JSON
func serveJSON(endpoint func(r *http.Request, body []byte) (interface{}, int)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Method == http.MethodPost {
			var ok bool
			if body, ok = readBody(w, r); !ok {
				return
			}
		}
		resp, status := endpoint(r, body)
		writeJSON(w, resp, status)
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, errorBody("Request body too large or unreadable"), http.StatusRequestEntityTooLarge)
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, body interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[API] Failed to write response: %v", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const defaultLimiterIdleTTL = 10 * time.Minute

// ClientRateLimiter keeps one token bucket per client IP. Buckets idle for
// longer than idleTTL are swept on a later request.
type ClientRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	rate      rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientRateLimiter creates a limiter allowing rps requests per second per client
func NewClientRateLimiter(rps float64, burst int) *ClientRateLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = int(rps * 2)
		if burst < 1 {
			burst = 1
		}
	}
	return &ClientRateLimiter{
		limiters:  make(map[string]*clientLimiter),
		rate:      rate.Limit(rps),
		burst:     burst,
		idleTTL:   defaultLimiterIdleTTL,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow reports whether the client may make a request now
func (l *ClientRateLimiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	entry, ok := l.limiters[client]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[client] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// sweep drops buckets not seen within idleTTL; callers hold mu
func (l *ClientRateLimiter) sweep(now time.Time) {
	for client, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.idleTTL {
			delete(l.limiters, client)
		}
	}
	l.lastSweep = now
}

// Len returns the number of tracked clients
func (l *ClientRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Middleware rejects requests over the client's budget with 429
func (l *ClientRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions && !l.Allow(clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, errorBody("Too many requests"), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
