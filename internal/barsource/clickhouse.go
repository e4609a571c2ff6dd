package barsource

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/newthinker/tradelab/internal/core"
)

// ClickHouseConfig holds the connection and table of the bar store
type ClickHouseConfig struct {
	Addr        []string      `mapstructure:"addr"`
	Database    string        `mapstructure:"database"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	Table       string        `mapstructure:"table"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the configuration. Database and table are interpolated
// into the query, so they must be plain identifiers.
func (c ClickHouseConfig) Validate() error {
	if len(c.Addr) == 0 {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("clickhouse addr is required"))
	}
	if !identifier.MatchString(c.Database) || !identifier.MatchString(c.Table) {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("invalid clickhouse table %s.%s", c.Database, c.Table))
	}
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type queryFunc func(ctx context.Context, query string, args ...any) (rowScanner, error)

// ClickHouse loads bars with one ordered query per symbol. Price and
// volume columns are cast to Decimal server side and converted once here.
type ClickHouse struct {
	conn   clickhouse.Conn
	query  queryFunc
	sql    string
	logger *zap.Logger
}

// NewClickHouse opens and pings the connection
func NewClickHouse(ctx context.Context, cfg ClickHouseConfig, logger ...*zap.Logger) (*ClickHouse, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: cfg.Addr,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, core.WrapError(core.ErrIO, fmt.Errorf("clickhouse open: %w", err))
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, core.WrapError(core.ErrIO, fmt.Errorf("clickhouse ping: %w", err))
	}

	ch := newClickHouse(cfg, func(ctx context.Context, q string, args ...any) (rowScanner, error) {
		return conn.Query(ctx, q, args...)
	}, logger...)
	ch.conn = conn
	return ch, nil
}

func newClickHouse(cfg ClickHouseConfig, query queryFunc, logger ...*zap.Logger) *ClickHouse {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &ClickHouse{
		query:  query,
		sql:    barQuery(cfg.Database, cfg.Table),
		logger: l,
	}
}

func barQuery(db, table string) string {
	return fmt.Sprintf(`SELECT ts,
	toDecimal128(open, 8), toDecimal128(high, 8), toDecimal128(low, 8),
	toDecimal128(close, 8), toDecimal128(volume, 8)
FROM %s.%s
WHERE symbol = ?
ORDER BY ts`, db, table)
}

// Load runs the bar query for one symbol
func (c *ClickHouse) Load(ctx context.Context, symbol string) (core.BarSeries, error) {
	rows, err := c.query(ctx, c.sql, symbol)
	if err != nil {
		return core.BarSeries{}, core.WrapError(core.ErrIO, fmt.Errorf("query %s: %w", symbol, err))
	}
	defer rows.Close()

	series := core.BarSeries{Symbol: symbol, Fields: core.NewFieldSet(core.AllFields...)}
	for rows.Next() {
		var (
			ts                               time.Time
			open, high, low, closePx, volume decimal.Decimal
		)
		if err := rows.Scan(&ts, &open, &high, &low, &closePx, &volume); err != nil {
			return core.BarSeries{}, core.WrapError(core.ErrIO, fmt.Errorf("scan %s: %w", symbol, err))
		}
		series.Bars = append(series.Bars, core.Bar{
			Symbol: symbol,
			Time:   ts.UTC(),
			Open:   open.InexactFloat64(),
			High:   high.InexactFloat64(),
			Low:    low.InexactFloat64(),
			Close:  closePx.InexactFloat64(),
			Volume: volume.InexactFloat64(),
		})
	}
	if err := rows.Err(); err != nil {
		return core.BarSeries{}, core.WrapError(core.ErrIO, fmt.Errorf("rows %s: %w", symbol, err))
	}

	c.logger.Debug("bars loaded", zap.String("symbol", symbol), zap.Int("bars", series.Len()))
	return series, nil
}

// Close releases the connection
func (c *ClickHouse) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
