package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Nurfog/bbbAPIGL/internal/academic"
	"github.com/Nurfog/bbbAPIGL/internal/calendar"
	"github.com/Nurfog/bbbAPIGL/internal/config"
	"github.com/Nurfog/bbbAPIGL/internal/database"
	"github.com/Nurfog/bbbAPIGL/internal/handler"
	"github.com/Nurfog/bbbAPIGL/internal/mail"
	"github.com/Nurfog/bbbAPIGL/internal/roomstore"
	"github.com/Nurfog/bbbAPIGL/internal/router"
	"github.com/Nurfog/bbbAPIGL/internal/service"
	"github.com/Nurfog/bbbAPIGL/internal/storage"
)

// API is the HTTP API application.
type API struct {
	cfg         *config.Config
	srv         *http.Server
	db          *gorm.DB
	academic    *academic.Store
	invitations *service.InvitationService
	log         *zap.Logger
}

// NewAPI creates the API application: validates config, runs migrations,
// opens both stores, builds the Google clients and the router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}

	academicStore, err := academic.Open(cfg.AcademicDSN())
	if err != nil {
		return nil, fmt.Errorf("academic store: %w", err)
	}

	ctx := context.Background()
	cal, err := calendar.NewGoogleService(ctx, cfg.Google.CredentialsFile, cfg.Google.Impersonate, cfg.Google.CalendarID)
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	mailer, err := mail.NewGmailSender(ctx, cfg.Google.CredentialsFile, cfg.Google.Impersonate)
	if err != nil {
		return nil, fmt.Errorf("mail: %w", err)
	}

	var presigner storage.Presigner
	if cfg.S3.Bucket != "" {
		p, err := storage.NewS3Presigner(ctx, cfg.S3.Bucket, cfg.S3.Region)
		if err != nil {
			logger.Warn("s3 presigner unavailable, using public playback urls", zap.Error(err))
		} else {
			presigner = p
		}
	}

	rooms := roomstore.New(db)
	roomSvc := service.NewRoomService(rooms, academicStore, cal, presigner, cfg.PublicURL, logger)
	invitationSvc := service.NewInvitationService(academicStore, cal, mailer, logger)

	roomHandler := handler.NewRoomHandler(roomSvc, logger)
	invitationHandler := handler.NewInvitationHandler(invitationSvc, logger)
	health := handler.NewHealthHandler(academicStore)

	r := router.New(roomHandler, invitationHandler, health)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{
		cfg:         cfg,
		srv:         srv,
		db:          db,
		academic:    academicStore,
		invitations: invitationSvc,
		log:         logger,
	}, nil
}

// Run starts the HTTP server and the reconciliation loop, then blocks until
// ctx is cancelled; shutdown is graceful.
func (a *API) Run(ctx context.Context) error {
	addr := a.srv.Addr
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", addr)
	log.Printf("  Health:      %s/health", base)
	log.Printf("  Ready:       %s/ready", base)
	log.Printf("  API:         %s/apiv2", base)

	if a.cfg.SyncInterval > 0 {
		go a.syncLoop(ctx)
	}

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	_ = a.academic.Close()
	_ = a.log.Sync()
	return nil
}
