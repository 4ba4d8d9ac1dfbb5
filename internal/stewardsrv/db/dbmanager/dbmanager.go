package dbmanager

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"
)

type PooledDb interface {
	// Conn returns a new connection to the database.
	// Returns a PooledConn and an error, if any.
	Conn(ctx context.Context) (PooledConn, error)
	// Stats returns the number of connection requests and returns.
	Stats() (requests, returns uint64)
}

type PooledConn interface {
	// Conn returns the underlying connection of the PooledConn.
	Conn() *sql.Conn
	// Close returns the connection back to the pool.
	Close(ctx context.Context)
}

func NewPooledDb(ctx context.Context, dbtype string) PooledDb {
	switch dbtype {
	case "postgresql":
		db, err := NewPostgresqlDb()
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to create PostgreSQL DB")
			return nil
		}
		return db
	}
	return nil
}
