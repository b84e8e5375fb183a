package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/auth"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/checkup"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/dashboard"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/deviation"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/documents"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/extraction"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/knowledge"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/llm"
	openai "github.com/oliverhe202018-ctrl/medi-bid-flow/internal/llm/openai"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/oplog"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/projects"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/qualifications"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/queue"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/requirements"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/services/health"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/settings"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/config"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/scheduler"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/server"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/storage/db"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/storage/object"
	localstore "github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/storage/object/local"
	s3store "github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/storage/object/s3"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/specs"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/templates"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/users"
)

// staleSweepSchedule fails extraction tasks whose worker went away.
const staleSweepSchedule = "*/5 * * * *"

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	Settings       *settings.Service
	OpLog          *oplog.Service
	Users          *users.Service
	Projects       *projects.Service
	Documents      *documents.Service
	Requirements   *requirements.Service
	Extraction     *extraction.Service
	Specs          *specs.Service
	Knowledge      *knowledge.Service
	Templates      *templates.Service
	Deviations     *deviation.Service
	Qualifications *qualifications.Service
	Checkups       *checkup.Service
	Dashboard      *dashboard.Service
	GoogleAuth     *auth.GoogleService
}

// Build prepares every service and the router. With no DATABASE_URL in a
// dev-like environment all repositories are in memory.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB, Store: store, Queue: queueClient}
	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}
	app.Router = app.router()
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.SQSQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
}

func buildExtractor(cfg config.Config) (requirements.Extractor, error) {
	if cfg.Extractor != "llm" {
		return requirements.RulesExtractor{}, nil
	}
	client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
	if err != nil {
		return nil, err
	}
	retrying := llm.WithRetry(client, func(err error) {
		telemetry.Warn("llm.retry", map[string]any{"model": client.Model(), "error": err.Error()})
	})
	return requirements.LLMExtractor{Client: retrying, Model: client.Model()}, nil
}

type repos struct {
	users          users.Repo
	oplog          oplog.Repo
	projects       projects.Repo
	documents      documents.DocumentsRepo
	requirements   requirements.Repo
	extraction     extraction.Repo
	specs          specs.Repo
	knowledge      knowledge.Repo
	templates      templates.Repo
	deviation      deviation.Repo
	qualifications qualifications.Repo
	checkup        checkup.Repo
}

func buildRepos(sqlDB *sql.DB) repos {
	if sqlDB == nil {
		return repos{
			users:          users.NewMemoryRepo(),
			oplog:          oplog.NewMemoryRepo(),
			projects:       projects.NewMemoryRepo(),
			documents:      documents.NewMemoryRepo(),
			requirements:   requirements.NewMemoryRepo(),
			extraction:     extraction.NewMemoryRepo(),
			specs:          specs.NewMemoryRepo(),
			knowledge:      knowledge.NewMemoryRepo(),
			templates:      templates.NewMemoryRepo(),
			deviation:      deviation.NewMemoryRepo(),
			qualifications: qualifications.NewMemoryRepo(),
			checkup:        checkup.NewMemoryRepo(),
		}
	}
	return repos{
		users:          &users.PGRepo{DB: sqlDB},
		oplog:          &oplog.PGRepo{DB: sqlDB},
		projects:       &projects.PGRepo{DB: sqlDB},
		documents:      &documents.PGRepo{DB: sqlDB},
		requirements:   &requirements.PGRepo{DB: sqlDB},
		extraction:     &extraction.PGRepo{DB: sqlDB},
		specs:          &specs.PGRepo{DB: sqlDB},
		knowledge:      &knowledge.PGRepo{DB: sqlDB},
		templates:      &templates.PGRepo{DB: sqlDB},
		deviation:      &deviation.PGRepo{DB: sqlDB},
		qualifications: &qualifications.PGRepo{DB: sqlDB},
		checkup:        &checkup.PGRepo{DB: sqlDB},
	}
}

func buildServices(ctx context.Context, app *App) error {
	cfg := &app.Config
	r := buildRepos(app.DB)

	if app.DB != nil {
		app.Settings = settings.NewPostgresService(settings.NewPGStore(app.DB))
	} else {
		app.Settings = settings.NewService()
	}
	current, err := app.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if n := current.Performance.MaxConcurrentTasks; n > 0 {
		cfg.MaxConcurrentTasks = n
	}
	if secs := current.Performance.ExtractionTimeoutSeconds; secs > 0 {
		cfg.ExtractionTimeout = time.Duration(secs) * time.Second
	}

	extractor, err := buildExtractor(*cfg)
	if err != nil {
		return err
	}

	app.OpLog = &oplog.Service{Repo: r.oplog}
	app.Users = users.NewService(r.users)
	app.Projects = &projects.Service{Repo: r.projects}
	app.Documents = &documents.Service{
		Store:           app.Store,
		Repo:            r.documents,
		Projects:        app.Projects,
		StorageProvider: cfg.ObjectStoreType,
		MaxRFPBytes:     cfg.MaxRFPUploadBytes,
		MaxBidBytes:     cfg.MaxBidUploadBytes,
	}
	app.Requirements = &requirements.Service{Repo: r.requirements, Projects: app.Projects}
	app.Extraction = &extraction.Service{
		Repo:          r.extraction,
		Documents:     app.Documents,
		Projects:      app.Projects,
		Requirements:  app.Requirements,
		Extractor:     extractor,
		Queue:         app.Queue,
		Timeout:       cfg.ExtractionTimeout,
		MaxConcurrent: cfg.MaxConcurrentTasks,
	}
	app.Specs = &specs.Service{Repo: r.specs}
	app.Knowledge = &knowledge.Service{Repo: r.knowledge}
	app.Templates = &templates.Service{
		Store:           app.Store,
		Repo:            r.templates,
		StorageProvider: cfg.ObjectStoreType,
		MaxBytes:        cfg.MaxBidUploadBytes,
	}
	app.Deviations = &deviation.Service{
		Repo:         r.deviation,
		Projects:     app.Projects,
		Requirements: app.Requirements,
		Specs:        app.Specs,
	}

	settingsSvc := app.Settings
	app.Qualifications = &qualifications.Service{
		Repo:     r.qualifications,
		Location: cfg.Location(),
		Notifier: qualifications.Notifiers{
			qualifications.LogNotifier{},
			qualifications.MailNotifier{Config: func(context.Context) (qualifications.MailConfig, bool) {
				return mailConfig(settingsSvc.Current().Email)
			}},
		},
		AlertDays: func() int { return settingsSvc.Current().Compliance.AlertThresholdDays },
	}
	app.Checkups = &checkup.Service{
		Repo:           r.checkup,
		Projects:       app.Projects,
		Documents:      app.Documents,
		Requirements:   app.Requirements,
		Deviations:     app.Deviations,
		Qualifications: app.Qualifications,
		Settings:       app.Settings,
	}
	app.Dashboard = &dashboard.Service{
		Projects:       app.Projects,
		Qualifications: app.Qualifications,
		Checkups:       app.Checkups,
		Extractions:    app.Extraction,
	}
	app.GoogleAuth = auth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		app.Users,
		app.OpLog,
	)
	return nil
}

func mailConfig(e settings.Email) (qualifications.MailConfig, bool) {
	return qualifications.MailConfig{
		Host:       e.SMTPHost,
		Port:       e.SMTPPort,
		Username:   e.Username,
		Password:   e.Password,
		From:       e.From,
		FromName:   e.FromName,
		Recipients: e.Recipients,
	}, e.Enabled
}

func (app *App) router() *gin.Engine {
	var pinger health.Pinger
	if app.DB != nil {
		pinger = app.DB
	}
	return server.NewRouter(server.RouterDeps{
		Config:               app.Config,
		Health:               health.NewService(pinger),
		OpLog:                app.OpLog,
		GoogleAuth:           app.GoogleAuth,
		UserHandler:          users.NewHandler(app.Users, app.OpLog),
		ProjectHandler:       projects.NewHandler(app.Projects),
		DocumentHandler:      documents.NewHandler(app.Documents),
		ExtractionHandler:    extraction.NewHandler(app.Extraction),
		RequirementHandler:   requirements.NewHandler(app.Requirements),
		SpecHandler:          specs.NewHandler(app.Specs),
		KnowledgeHandler:     knowledge.NewHandler(app.Knowledge),
		TemplateHandler:      templates.NewHandler(app.Templates),
		DeviationHandler:     deviation.NewHandler(app.Deviations),
		QualificationHandler: qualifications.NewHandler(app.Qualifications),
		CheckupHandler:       checkup.NewHandler(app.Checkups, checkup.ReportOptions{FontPath: app.Config.ReportFontPath, Location: app.Config.Location()}),
		SettingsHandler:      settings.NewHandler(app.Settings),
		OpLogHandler:         oplog.NewHandler(app.OpLog),
		DashboardHandler:     dashboard.NewHandler(app.Dashboard),
	})
}

// Jobs returns the periodic jobs of the API process: the daily expiry scan
// and the stale extraction sweep.
func (app *App) Jobs() []scheduler.Job {
	return []scheduler.Job{
		app.Qualifications.ScanJob(app.Config.QualScanCron),
		{
			Name:     "extraction-stale-sweep",
			Schedule: staleSweepSchedule,
			Run: func(ctx context.Context) error {
				_, err := app.Extraction.ExpireStale(ctx)
				return err
			},
		},
	}
}

// Close releases the database pool.
func (app *App) Close() error {
	if app.DB == nil {
		return nil
	}
	return app.DB.Close()
}
