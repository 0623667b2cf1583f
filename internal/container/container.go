package container

import (
	"context"
	"log"
	"time"

	"datastory/adapters/loader"
	"datastory/adapters/postgres"
	"datastory/ai"
	"datastory/app"
	"datastory/internal/chart"
	"datastory/internal/config"
	"datastory/internal/errors"
	"datastory/internal/migration"
	"datastory/internal/samples"
	"datastory/internal/usage"
	"datastory/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const pingTimeout = 5 * time.Second

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Data access
	Loader    *loader.Loader
	Samples   *samples.Registry
	UsageRepo ports.LLMUsageRepository
	Usage     *usage.Service

	// Story pipeline
	Compiler *ai.PromptCompiler
	Narrator *ai.StoryClient
	Binder   *chart.Binder
	Stories  *app.StoryService
}

// New builds the story pipeline. When a database is configured it is opened
// and migrated first so the narrator records usage into it.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.InternalError("config cannot be nil")
	}

	c := &Container{Config: cfg}
	if cfg.HasUsageLedger() {
		db, err := sqlx.Connect(cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			return nil, errors.DatabaseError("failed to connect to database", err)
		}
		if err := c.InitWithDatabase(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	c.initPipeline()
	return c, nil
}

// InitWithDatabase migrates db and wires the usage ledger onto it
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return errors.InternalError("database connection cannot be nil")
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return errors.Wrap(err, "database migration failed")
	}

	c.DB = db
	c.UsageRepo = postgres.NewLLMUsageRepository(db)
	c.Usage = usage.NewService(c.UsageRepo)
	log.Printf("[Container] Usage ledger ready (driver=%s)", db.DriverName())

	if c.Stories != nil {
		c.initPipeline()
	}
	return nil
}

func (c *Container) initPipeline() {
	c.Loader = loader.New()
	c.Samples = samples.NewRegistry(c.Loader)
	c.Compiler = ai.NewPromptCompiler(c.Config.AI.PromptsDir)
	c.Binder = chart.NewBinder(c.Config.Chart, nil)

	var opts []ai.StoryClientOption
	if c.Usage != nil {
		opts = append(opts, ai.WithUsageRecorder(c.Usage))
	}
	c.Narrator = ai.NewStoryClient(c.Config.AI, opts...)

	var narrator app.Narrator
	if c.Narrator.Available() {
		narrator = c.Narrator
	} else {
		log.Printf("[Container] OPENAI_API_KEY not set, stories use the fallback narrative")
	}
	c.Stories = app.NewStoryService(c.Compiler, narrator, c.Binder)
}

// Ready pings the database when one is configured
func (c *Container) Ready() error {
	if c.DB == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := c.DB.PingContext(ctx); err != nil {
		return errors.DatabaseError("database unreachable", err)
	}
	return nil
}

// Shutdown releases the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
