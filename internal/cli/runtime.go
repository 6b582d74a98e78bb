package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nielle003/patient-record/internal/app"
	"github.com/nielle003/patient-record/internal/config"
	logpkg "github.com/nielle003/patient-record/internal/log"
	"github.com/nielle003/patient-record/internal/storage"
)

type GlobalOptions struct {
	ConfigPath string
	DBPath     string
}

// runtime wires the process-wide store handle into every service once, at
// startup. Repositories never open the store themselves.
type runtime struct {
	Config config.Config
	Store  *storage.Store

	Patients *app.PatientService
	Visits   *app.VisitService
	Payments *app.PaymentService
	Users    *app.UserService
	Backup   *app.BackupService

	logCloser io.Closer
}

func openRuntime(globals *GlobalOptions) (*runtime, error) {
	cfgPath := resolveConfigPath(globals)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	if globals != nil && globals.DBPath != "" {
		cfg.Database.Path = filepath.Clean(globals.DBPath)
	} else if value := os.Getenv("PATIENTREC_DB_PATH"); value != "" {
		cfg.Database.Path = filepath.Clean(value)
	}

	logger, logCloser, err := logpkg.Setup(logpkg.Options{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
	if err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}

	store, err := storage.Open(cfg.Database.Path, logger)
	if err != nil {
		if logCloser != nil {
			_ = logCloser.Close()
		}
		return nil, err
	}

	return &runtime{
		Config:    cfg,
		Store:     store,
		Patients:  app.NewPatientService(store.Patients),
		Visits:    app.NewVisitService(store.Visits, store.Patients),
		Payments:  app.NewPaymentService(store.Payments),
		Users:     app.NewUserService(store.Users, logger),
		Backup:    app.NewBackupService(store, logger),
		logCloser: logCloser,
	}, nil
}

func (rt *runtime) Close() {
	if rt == nil {
		return
	}
	if rt.Store != nil {
		_ = rt.Store.Close()
	}
	if rt.logCloser != nil {
		_ = rt.logCloser.Close()
	}
}

func resolveConfigPath(globals *GlobalOptions) string {
	if globals != nil && globals.ConfigPath != "" {
		return filepath.Clean(globals.ConfigPath)
	}
	if value := os.Getenv("PATIENTREC_CONFIG_PATH"); value != "" {
		return filepath.Clean(value)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".patient-record", "config.toml")
}
