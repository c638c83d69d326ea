package records

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mikey/claim-triage/internal/core"
)

// PostgresConfig holds the connection settings of the transaction record database
type PostgresConfig struct {
	Host           string
	Port           int
	Database       string
	User           string
	Password       string
	SSLMode        string
	MaxConns       int32
	ConnectTimeout time.Duration
}

// ConnectionString builds a PostgreSQL connection string from the config
func (c PostgresConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
		int(c.ConnectTimeout.Seconds()),
	)
}

// Validate checks that the required fields are set
func (c PostgresConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}
	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.User == "" {
		return fmt.Errorf("database user is required")
	}
	return nil
}

// PostgresStore looks up invoices, purchase orders and goods receipts in PostgreSQL
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a pool for cfg. The pool connects lazily so an
// unreachable database only surfaces when a claim is verified.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	logger.Info("Configured record store",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database))

	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Acquire takes a connection from the pool for the lookups of one claim
func (s *PostgresStore) Acquire(ctx context.Context) (core.RecordSession, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return &postgresSession{conn: conn}, nil
}

// Close closes the pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

type postgresSession struct {
	conn *pgxpool.Conn
}

func (s *postgresSession) FindInvoice(ctx context.Context, invoiceNumber string) (*core.InvoiceRecord, error) {
	var (
		rec    core.InvoiceRecord
		status *string
	)
	err := s.conn.QueryRow(ctx,
		`SELECT invoice_id, amount::float8, sap_status FROM invoice WHERE invoice_number = $1`,
		invoiceNumber,
	).Scan(&rec.ID, &rec.Amount, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to query invoice: %w", err)
	}
	if status != nil {
		rec.Status = *status
	}
	return &rec, nil
}

func (s *postgresSession) FindPurchaseOrder(ctx context.Context, poNumber string) (*core.PurchaseOrderRecord, error) {
	var rec core.PurchaseOrderRecord
	err := s.conn.QueryRow(ctx,
		`SELECT po_id FROM purchase_order WHERE po_number = $1`,
		poNumber,
	).Scan(&rec.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to query purchase order: %w", err)
	}
	return &rec, nil
}

func (s *postgresSession) FindGoodsReceipts(ctx context.Context, poID int64) ([]core.GoodsReceiptRecord, error) {
	rows, err := s.conn.Query(ctx, `SELECT grn_id FROM goods_receipt WHERE po_id = $1`, poID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goods receipts: %w", err)
	}
	defer rows.Close()

	out := []core.GoodsReceiptRecord{}
	for rows.Next() {
		var rec core.GoodsReceiptRecord
		if err := rows.Scan(&rec.ID); err != nil {
			return nil, fmt.Errorf("failed to scan goods receipt: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goods receipts: %w", err)
	}
	return out, nil
}

func (s *postgresSession) Release() {
	s.conn.Release()
}
