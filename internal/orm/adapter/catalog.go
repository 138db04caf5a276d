// Package adapter resolves the data sources models are bound to: the dialect
// each one speaks and, on demand, an open database handle.
package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
	"go.uber.org/zap"

	"github.com/conduit-lang/modelmeta/internal/orm/metadata"
)

// Drivers maps every supported database/sql driver name to its dialect
var Drivers = map[string]string{
	"pgx":      metadata.DialectPostgreSQL,
	"postgres": metadata.DialectPostgreSQL,
	"mysql":    metadata.DialectMySQL,
	"sqlite3":  metadata.DialectSQLite,
}

// Source is a configured data source
type Source struct {
	ID              string        `json:"id"`
	Driver          string        `json:"driver"`
	DSN             string        `json:"-"`
	MaxOpenConns    int           `json:"max_open_conns,omitempty"`
	MaxIdleConns    int           `json:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime,omitempty"`
}

// Dialect returns the dialect spoken by the source's driver
func (s Source) Dialect() (string, error) {
	dialect, ok := Drivers[strings.ToLower(s.Driver)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, s.Driver)
	}
	return dialect, nil
}

// Validate checks the driver and lets the driver parse the DSN without
// connecting
func (s Source) Validate() error {
	if s.ID == "" {
		return errors.New("data source id is required")
	}
	if _, err := s.Dialect(); err != nil {
		return fmt.Errorf("source %s: %w", s.ID, err)
	}
	if err := validateDSN(strings.ToLower(s.Driver), s.DSN); err != nil {
		return fmt.Errorf("source %s: %w: %v", s.ID, ErrInvalidDSN, err)
	}
	return nil
}

func validateDSN(driver, dsn string) error {
	if dsn == "" {
		return errors.New("empty dsn")
	}
	switch driver {
	case "mysql":
		_, err := mysql.ParseDSN(dsn)
		return err
	case "pgx":
		_, err := pgx.ParseConfig(dsn)
		return err
	case "postgres":
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			_, err := pq.ParseURL(dsn)
			return err
		}
	}
	return nil
}

// Opener opens a database handle, sql.Open by default
type Opener func(driver, dsn string) (*sql.DB, error)

// Option configures a Catalog
type Option func(*Catalog)

// WithOpener replaces the function used to open handles
func WithOpener(open Opener) Option {
	return func(c *Catalog) {
		c.open = open
	}
}

// WithLogger sets the catalog logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Catalog holds the configured data sources. Ids are matched
// case-insensitively since configuration keys arrive lowercased. It
// implements metadata.DialectProvider and metadata.DialectLister and is safe
// for concurrent use.
type Catalog struct {
	sources map[string]Source
	dbs     map[string]*sql.DB
	open    Opener
	logger  *zap.Logger
	mu      sync.RWMutex
}

// NewCatalog creates a catalog from validated sources
func NewCatalog(sources []Source, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		sources: make(map[string]Source, len(sources)),
		dbs:     make(map[string]*sql.DB),
		open:    sql.Open,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, s := range sources {
		if err := c.Add(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add registers a data source
func (c *Catalog) Add(s Source) error {
	if err := s.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := sourceKey(s.ID)
	if _, exists := c.sources[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, s.ID)
	}
	c.sources[key] = s
	return nil
}

func sourceKey(id string) string {
	return strings.ToLower(id)
}

// Source returns a configured data source
func (c *Catalog) Source(id string) (Source, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.sources[sourceKey(id)]
	if !ok {
		return Source{}, &UnknownSourceError{Source: id}
	}
	return s, nil
}

// Sources returns every data source sorted by id
func (c *Catalog) Sources() []Source {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Source, 0, len(c.sources))
	for _, s := range c.sources {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Dialect implements metadata.DialectProvider
func (c *Catalog) Dialect(source string) (string, error) {
	s, err := c.Source(source)
	if err != nil {
		return "", err
	}
	return s.Dialect()
}

// Dialects implements metadata.DialectLister
func (c *Catalog) Dialects() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range c.Sources() {
		d, err := s.Dialect()
		if err != nil || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// DB returns an open handle for a data source, opening and pinging it on
// first use
func (c *Catalog) DB(ctx context.Context, id string) (*sql.DB, error) {
	key := sourceKey(id)
	c.mu.RLock()
	db, ok := c.dbs[key]
	c.mu.RUnlock()
	if ok {
		return db, nil
	}

	s, err := c.Source(id)
	if err != nil {
		return nil, err
	}

	db, err = c.open(strings.ToLower(s.Driver), s.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open source %s: %w", id, err)
	}
	if s.MaxOpenConns > 0 {
		db.SetMaxOpenConns(s.MaxOpenConns)
	}
	if s.MaxIdleConns > 0 {
		db.SetMaxIdleConns(s.MaxIdleConns)
	}
	if s.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(s.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to source %s: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.dbs[key]; ok {
		// Lost the race with a concurrent caller
		db.Close()
		return existing, nil
	}
	c.dbs[key] = db

	c.logger.Info("connected to data source",
		zap.String("source", id),
		zap.String("driver", s.Driver),
	)
	return db, nil
}

// Ping checks connectivity of every data source
func (c *Catalog) Ping(ctx context.Context) map[string]error {
	results := make(map[string]error)
	for _, s := range c.Sources() {
		db, err := c.DB(ctx, s.ID)
		if err == nil {
			err = db.PingContext(ctx)
		}
		results[s.ID] = err
	}
	return results
}

// Close closes every open handle
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for id, db := range c.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("source %s: %w", id, err))
		}
	}
	c.dbs = make(map[string]*sql.DB)
	return errors.Join(errs...)
}
