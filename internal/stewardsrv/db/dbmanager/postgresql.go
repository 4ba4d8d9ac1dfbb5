// Package dbmanager provides functionality for managing the PostgreSQL database connection pool and executing queries.
package dbmanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v4/stdlib"

	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/config"
)

// postgresConn represents a connection to the PostgreSQL database.
type postgresConn struct {
	conn   *sql.Conn
	cancel context.CancelFunc
	pool   *postgresPool
}

// postgresPool represents a pool of PostgreSQL database connections.
type postgresPool struct {
	connRequests uint64
	connReturns  uint64
	db           *sql.DB
}

// NewPostgresqlDb creates a new PostgreSQL database connection pool.
// It returns a pointer to the pool and an error, if any.
func NewPostgresqlDb() (PooledDb, error) {
	// Get the database connection string from the configuration.
	dsn := config.StewardDbDsn()

	// Open a new database connection using the "pgx" driver.
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Error().Err(err).Msg("failed to open db")
		return nil, err
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns())
	sqlDB.SetMaxIdleConns(config.MaxIdleConns())

	// Ping the database to see if the connection is valid.
	err = sqlDB.Ping()
	if err != nil {
		log.Error().Err(err).Msg("failed to ping db")
		return nil, err
	}

	return &postgresPool{
		db: sqlDB,
	}, nil
}

// Conn returns a new connection to the PostgreSQL database from the connection pool.
func (p *postgresPool) Conn(ctx context.Context) (PooledConn, error) {
	ctx, cancel := context.WithCancel(ctx)

	// Obtain a connection from the database connection pool.
	conn, err := p.db.Conn(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to obtain connection")
		cancel()
		return nil, err
	}

	// set lock timeout for conn
	_, err = conn.ExecContext(ctx, "SET lock_timeout = '5s'")
	if err != nil {
		log.Error().Err(err).Msg("failed to set lock timeout")
		conn.Close()
		cancel()
		return nil, err
	}
	// set statement timeout for conn
	_, err = conn.ExecContext(ctx, "SET statement_timeout = '5s'")
	if err != nil {
		log.Error().Err(err).Msg("failed to set statement timeout")
		conn.Close()
		cancel()
		return nil, err
	}

	h := &postgresConn{
		cancel: cancel,
		pool:   p,
		conn:   conn,
	}

	p.connRequests++
	return h, nil
}

// Stats returns the number of connection requests and returns made to the PostgreSQL database.
func (p *postgresPool) Stats() (requests, returns uint64) {
	return p.connRequests, p.connReturns
}

// Close returns the connection back to the pool.
func (h *postgresConn) Close(ctx context.Context) {
	if h.cancel != nil {
		h.cancel()
	}
	if h.conn != nil {
		h.conn.Close()
	}
	h.pool.connReturns++
}

// Conn returns the underlying connection of the PooledConn.
func (h *postgresConn) Conn() *sql.Conn {
	return h.conn
}
