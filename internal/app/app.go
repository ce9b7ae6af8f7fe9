package app

import (
	"time"

	"go.uber.org/zap"

	"chemviz/internal/api"
	"chemviz/internal/dataset"
	"chemviz/internal/export"
	"chemviz/internal/session"
	"chemviz/internal/upload"
)

// Application wires the client together: one gateway, one session, one
// dataset store, one upload pipeline, one export trigger. The TUI and the
// scripted subcommands both run on top of this.
type Application struct {
	Config   Config
	Logger   *zap.Logger
	Client   *api.Client
	Session  *session.Session
	Auth     *session.Controller
	Datasets *dataset.Store
	Uploads  *upload.Pipeline
	Exports  *export.Trigger
}

func NewApplication(cfg Config) *Application {
	logger := NewLogger(cfg.LogFile)
	client := api.NewClient(cfg.ServerURL, time.Duration(cfg.TimeoutSeconds)*time.Second, logger)

	sess := session.New()
	datasets := dataset.NewStore(client, logger)
	auth := session.NewController(client, sess, datasets, cfg.AdminUsername, logger)
	uploads := upload.NewPipeline(client, datasets, logger)
	exports := export.NewTrigger(client, cfg.DownloadDir, logger)

	return &Application{
		Config:   cfg,
		Logger:   logger,
		Client:   client,
		Session:  sess,
		Auth:     auth,
		Datasets: datasets,
		Uploads:  uploads,
		Exports:  exports,
	}
}

// Close flushes the logger; called on shutdown.
func (a *Application) Close() {
	_ = a.Logger.Sync()
}
