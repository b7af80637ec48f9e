package http

import (
	"context"
	"html/template"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"gasolina/internal/cache"
	"gasolina/internal/core"
	"gasolina/internal/icon"
	"gasolina/internal/log"
	"gasolina/internal/middleware/ratelimit"
	"gasolina/internal/middleware/security"
	"gasolina/internal/middleware/trace"
	"gasolina/internal/services"
	appweb "gasolina/web"
)

type (
	// EntryAPI is the write side used by the handlers; services.EntryService implements it.
	EntryAPI interface {
		CreateEntry(ctx context.Context, in core.EntryInput) (core.Entry, error)
		DeleteEntry(ctx context.Context, id int64) error
		ListEntries(ctx context.Context) ([]core.Entry, error)
		Budget(ctx context.Context) (float64, error)
		SetBudget(ctx context.Context, amount float64) error
	}

	// StatsAPI is the read side; services.StatsService implements it.
	StatsAPI interface {
		Snapshot(ctx context.Context) (services.Snapshot, error)
		CacheStats() cache.Stats
	}

	// IconGenerator creates the app icon.
	IconGenerator interface {
		Generate(ctx context.Context) (icon.Image, error)
	}

	// Pinger reports backend reachability for /readyz.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Deps are the collaborators of the server. Icons and Store are optional.
type Deps struct {
	Entries   EntryAPI
	Stats     StatsAPI
	Icons     IconGenerator
	Store     Pinger
	Clock     core.Clock
	Logger    *log.Logger
	RateLimit ratelimit.Config
}

// appMetrics tracks application-level counters
type appMetrics struct {
	entriesCreated atomic.Int64
	entriesDeleted atomic.Int64
	iconsGenerated atomic.Int64
	uptime         time.Time
}

type Server struct {
	http.Server
	templates *template.Template

	entries EntryAPI
	stats   StatsAPI
	icons   IconGenerator
	store   Pinger
	clock   core.Clock
	logger  *log.Logger

	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	metrics     *appMetrics

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	clock := deps.Clock
	if clock == nil {
		clock = core.SystemClock
	}

	rlCfg := deps.RateLimit
	if rlCfg.RequestsPerMinute == 0 {
		rlCfg = ratelimit.DefaultConfig()
	}

	detector := security.NewDetector()
	s := &Server{
		entries:     deps.Entries,
		stats:       deps.Stats,
		icons:       deps.Icons,
		store:       deps.Store,
		clock:       clock,
		logger:      logger,
		detector:    detector,
		rateLimiter: ratelimit.NewLimiter(rlCfg),
		tracer:      trace.NewMiddleware(detector.ExtractClientIP, logger),
		metrics:     &appMetrics{uptime: time.Now()},
	}

	t, err := appweb.Templates()
	if err != nil {
		logger.Error("Failed parsing templates", "error", err, log.FieldComponent, log.ComponentTemplate)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := appweb.Static(); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/dashboard", s.handleDashboardPartial)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	api := func(h http.HandlerFunc) http.Handler { return security.NoStore(h) }
	mux.Handle("GET /api/stats", api(s.handleStats))
	mux.Handle("GET /api/charts", api(s.handleCharts))
	mux.Handle("GET /api/entries", api(s.handleListEntries))
	mux.Handle("POST /api/entries", api(s.handleCreateEntry))
	mux.Handle("DELETE /api/entries/{id}", api(s.handleDeleteEntry))
	mux.Handle("POST /api/entries/delete", api(s.handleDeleteEntry))
	mux.Handle("GET /api/budget", api(s.handleGetBudget))
	mux.Handle("PUT /api/budget", api(s.handleSetBudget))
	mux.Handle("POST /api/budget", api(s.handleSetBudget))
	mux.Handle("POST /api/icon", api(s.handleGenerateIcon))
	mux.Handle("GET /export.csv", api(s.handleExportCSV))
	mux.Handle("GET /export.xlsx", api(s.handleExportXLSX))

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimited)(handler)
	handler = s.detectSuspicious(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// detectSuspicious logs scanner-like requests and lets them through.
func (s *Server) detectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request detected",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldUserAgent, r.Header.Get("User-Agent"),
				log.FieldComponent, log.ComponentSecurity)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path,
		log.FieldComponent, log.ComponentRateLimit)
	s.respondError(w, r, http.StatusTooManyRequests, "Demasiadas solicitudes. Inténtalo de nuevo en un minuto.")
}

// Shutdown drains in-flight requests. Later calls return the first result.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.shutdownErr = s.Server.Shutdown(ctx)
	})
	return s.shutdownErr
}
