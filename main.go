package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"realty_backoffice/api"
	"realty_backoffice/auth"
	"realty_backoffice/config"
	"realty_backoffice/httputil"
	"realty_backoffice/logging"
	"realty_backoffice/ratelimit"
	"realty_backoffice/scheduler"
	"realty_backoffice/scraper"
	"realty_backoffice/services"
	"realty_backoffice/storage"
)

var (
	importURL  = flag.String("import", "", "Import the listing at this URL and exit")
	issueToken = flag.String("issue-token", "", "Print an admin session token for this subject and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else if logFile != nil {
		defer logFile.Close()
	}

	if cfg.Auth.Secret == "" {
		if cfg.IsProduction() {
			log.Fatal("AUTH_SECRET is required in production")
		}
		cfg.Auth.Secret = uuid.NewString()
		log.Println("Warning: AUTH_SECRET not set, sessions will not survive a restart")
	}
	sessions := auth.NewManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	if *issueToken != "" {
		token, expires, err := sessions.Issue(*issueToken)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		log.Printf("Token for %s expires %s", *issueToken, expires.Format(time.RFC3339))
		return
	}

	log.Printf("Starting realty back office (%s)...", cfg.Env)

	ctx := context.Background()

	backend, err := openBackend(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	gateway := storage.NewGateway(backend)
	defer gateway.Close()

	blobs, err := storage.NewBlobStore(ctx, cfg.S3)
	if err != nil {
		log.Fatalf("Failed to set up blob storage: %v", err)
	}
	log.Printf("Blob storage: bucket %s, public base %s", cfg.S3.Bucket, storage.PublicBaseURL(cfg.S3))

	clients := httputil.NewClients(cfg.Scraper.Timeout)

	site := cfg.Site(cfg.Scraper.DefaultSite)
	listingScraper := scraper.New(site, scraper.NewFetcher(site, clients))
	defer listingScraper.Close()
	log.Printf("Scraper: %s [%s] (%s handler)", site.Name, listingScraper.SiteID(), site.Handler)

	listingService := services.NewListingService(gateway, blobs)
	inquiryService := services.NewInquiryService(gateway)
	matchService := services.NewMatchService(listingService)
	mediaService := services.NewMediaService(blobs, clients.Media)
	importService := services.NewImportService(listingScraper, mediaService, listingService, matchService)

	if *importURL != "" {
		ctx := auth.WithSession(ctx, auth.SystemSession(30*time.Minute))
		listing, err := importService.Import(ctx, services.ImportRequest{URL: *importURL})
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		log.Printf("Imported %s as listing %s with %d images", *importURL, listing.ID, len(listing.Images))
		return
	}

	limiter := ratelimit.New(cfg.RateLimit)
	defer limiter.Close()

	var sweeper scheduler.Sweeper
	if mem, ok := limiter.(*ratelimit.Memory); ok {
		sweeper = mem
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(cfg.Scheduler, sweeper, importService)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	server := api.NewServer(cfg, api.Deps{
		Listings:  listingService,
		Inquiries: inquiryService,
		Importer:  importService,
		Scraper:   listingScraper,
		Sessions:  sessions,
		Limiter:   limiter,
		Logger:    slog.Default(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			log.Printf("Server error: %v", err)
		}
	}

	log.Println("Shutting down...")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	sched.Stop()
	log.Println("Goodbye!")
}

func openBackend(ctx context.Context, cfg config.DBConfig) (storage.Backend, error) {
	tables := storage.Tables{
		storage.Listings:  cfg.ListingsTable,
		storage.Inquiries: cfg.InquiriesTable,
	}

	switch cfg.Driver {
	case "postgres":
		store, err := storage.NewPostgresStore(ctx, cfg.URL, tables)
		if err != nil {
			return nil, err
		}
		log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.URL))
		return store, nil
	case "sqlite", "":
		store, err := storage.NewSQLiteStore(cfg.Path, tables)
		if err != nil {
			return nil, err
		}
		log.Printf("SQLite database: %s", cfg.Path)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}
}

// maskConnectionString masks the password in a connection string for logging
func maskConnectionString(connStr string) string {
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}
	if colonIdx == -1 || atIdx == -1 || colonIdx > atIdx {
		return connStr
	}
	return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
}
