package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/contracts"
	"contract-backend/internal/email"
	"contract-backend/internal/pdf"
	"contract-backend/internal/render"
	"contract-backend/internal/services/health"
	"contract-backend/internal/shared/config"
	"contract-backend/internal/shared/server"
	"contract-backend/internal/shared/storage/db"
	"contract-backend/internal/shared/storage/object"
	localstore "contract-backend/internal/shared/storage/object/local"
	s3store "contract-backend/internal/shared/storage/object/s3"
	"contract-backend/internal/shared/telemetry"
	"contract-backend/web"
)

const pdfRenderTimeout = 30 * time.Second

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	PDFStore         *localstore.Store
	Archive          object.ObjectStore
	Repo             contracts.Repo
	Renderer         *render.Renderer
	Generator        *pdf.Generator
	Email            *email.Dispatcher
	Health           *health.Service
	ContractsService *contracts.Service
	ContractsHandler *contracts.Handler
	EmailHandler     *email.Handler
}

// Build prepares every dependency and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.PDFDir) == "" {
		cfg.PDFDir = "generated_pdfs"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	archive, err := buildArchive(ctx, cfg)
	if err != nil {
		return nil, err
	}

	renderer, err := render.New()
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		PDFStore: localstore.New(cfg.PDFDir),
		Archive:  archive,
		Renderer: renderer,
	}
	if sqlDB != nil {
		app.Repo = &contracts.PGRepo{DB: sqlDB}
	} else {
		app.Repo = contracts.NewMemoryRepo()
	}

	engines := pdf.Select(pdf.Options{Mode: cfg.PDFRenderer, BrowserBin: cfg.BrowserBin, Timeout: pdfRenderTimeout})
	app.Generator = pdf.NewGenerator(engines, app.PDFStore, archive)
	app.Email = email.NewDispatcher(EmailConfig(cfg.SMTP))
	app.Health = health.NewService(sqlDB, pdf.EngineNames(engines), app.Email.Configured())

	app.ContractsService = &contracts.Service{
		Repo:     app.Repo,
		Renderer: app.Renderer,
		PDF:      app.Generator,
		Email:    app.Email,
	}
	app.ContractsHandler = contracts.NewHandler(app.ContractsService, cfg.PDFRetentionDays)
	app.EmailHandler = email.NewHandler(app.Email)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		ContractsHandler: app.ContractsHandler,
		EmailHandler:     app.EmailHandler,
		Health:           app.Health,
		UI:               web.FS(),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":              cfg.Env,
		"repo":             repoKind(sqlDB),
		"pdf_dir":          cfg.PDFDir,
		"pdf_engines":      pdf.EngineNames(engines),
		"pdf_archive":      archive != nil,
		"email_configured": app.Email.Configured(),
	})
	return app, nil
}

// Close releases the browser and database connections.
func (a *App) Close() error {
	var errs []error
	if a.Generator != nil {
		errs = append(errs, a.Generator.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

// EmailConfig maps the SMTP settings onto the dispatcher config.
func EmailConfig(s config.SMTP) email.Config {
	return email.Config{
		Server:      s.Server,
		Port:        s.Port,
		Username:    s.Username,
		Password:    s.Password,
		SenderEmail: s.SenderEmail,
		SenderName:  s.SenderName,
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repo", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "database unavailable", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildArchive(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	if cfg.PDFArchive != "s3" {
		return nil, nil
	}
	store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	if err != nil {
		return nil, fmt.Errorf("pdf archive: %w", err)
	}
	return store, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}

func repoKind(sqlDB *sql.DB) string {
	if sqlDB == nil {
		return "memory"
	}
	return "postgres"
}
