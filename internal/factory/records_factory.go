package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/claim-triage/internal/adapters/records"
	"github.com/mikey/claim-triage/internal/config"
	"github.com/mikey/claim-triage/internal/core"
)

// RecordsFactory creates the transaction record store
type RecordsFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewRecordsFactory creates a new records factory
func NewRecordsFactory(cfg *config.Config, logger *zap.Logger) *RecordsFactory {
	return &RecordsFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateRecordStore creates the record store based on the configuration. The
// returned close function releases its connections.
func (f *RecordsFactory) CreateRecordStore(ctx context.Context) (core.RecordStore, func(), error) {
	recordsCfg := f.cfg.GetRecords()

	switch recordsCfg.Type {
	case "postgres":
		pg := recordsCfg.Postgres
		store, err := records.NewPostgresStore(ctx, records.PostgresConfig{
			Host:           pg.Host,
			Port:           pg.Port,
			Database:       pg.Database,
			User:           pg.User,
			Password:       pg.Password,
			SSLMode:        pg.SSLMode,
			MaxConns:       int32(pg.MaxConns),
			ConnectTimeout: pg.ConnectTimeout,
		}, f.logger)
		if err != nil {
			// verification degrades to offline instead of failing the run
			f.logger.Warn("Record store not configured, verifying offline", zap.Error(err))
			return records.OfflineStore{}, func() {}, nil
		}
		return store, store.Close, nil
	case "memory":
		if recordsCfg.FixturePath == "" {
			return records.NewMemoryStore(records.Fixture{}), func() {}, nil
		}
		store, err := records.LoadFixture(recordsCfg.FixturePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "offline", "none":
		return records.OfflineStore{}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported record store type: %s", recordsCfg.Type)
	}
}
