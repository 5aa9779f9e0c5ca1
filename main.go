package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	apihttp "solarfleet/internal/api/http"
	"solarfleet/internal/auth"
	ingestfs "solarfleet/internal/ingest/infrastructure/fs"
	masterdataapp "solarfleet/internal/masterdata/application"
	masterdatarepo "solarfleet/internal/masterdata/infrastructure/postgres"
	"solarfleet/internal/observability/metrics"
	"solarfleet/internal/pipeline/application"
	report "solarfleet/internal/report/interfaces"
	seriesrepo "solarfleet/internal/series/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	pipelineCfg, err := application.LoadConfig()
	if err != nil {
		logger.Fatalf("pipeline config error: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	pipelineMetrics := metrics.New()
	metrics.RegisterDBMetrics(db, logger)

	seriesRepository := seriesrepo.NewSeriesRepository(db)
	siteRepository := masterdatarepo.NewSiteRepository(db)
	profileSource := masterdataapp.NewFileSource(pipelineCfg.MetadataPath, siteRepository, logger)
	documentSource := ingestfs.NewDirectorySource(pipelineCfg.IngestDir)
	exporter := report.NewFileExporter(pipelineCfg.ReportDir, pipelineMetrics, logger)

	pipeline, err := application.NewService(
		documentSource,
		seriesRepository,
		profileSource,
		pipelineCfg,
		pipelineMetrics,
		logger,
		application.WithExporter(exporter),
	)
	if err != nil {
		logger.Fatalf("pipeline service error: %v", err)
	}

	scheduler := application.NewScheduler(pipeline, pipelineCfg.Schedule.DailyAt, logger)
	go scheduler.Start(context.Background())

	if cfg.RunOnStart {
		go func() {
			if _, err := pipeline.Run(context.Background()); err != nil {
				logger.Printf("startup run error: %v", err)
			}
		}()
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/fleet", apihttp.NewFleetHandler(pipeline))
	mux.Handle("/api/v1/sites", apihttp.NewSitesHandler(pipeline))
	mux.Handle("/api/v1/sites/", apihttp.NewSitesHandler(pipeline))
	mux.Handle("/api/v1/degradation", apihttp.NewDegradationHandler(pipeline))
	mux.Handle("/api/v1/runs", apihttp.NewRunHandler(pipeline))
	mux.Handle("/api/v1/reports/", apihttp.NewReportsHandler(pipeline))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
	RunOnStart  bool
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		RunOnStart:  getenvDefault("RUN_ON_START", "true") == "true",
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
