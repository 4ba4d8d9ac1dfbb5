// Description: This file contains the implementation of the stewardCatalogDb interface for the PostgreSQL database.
package postgresql

import (
	"context"
	"database/sql"

	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/dbmanager"
)

type metadataManager struct {
	c dbmanager.PooledConn
}

func newMetadataManager(c dbmanager.PooledConn) *metadataManager {
	return &metadataManager{c: c}
}

func (mm *metadataManager) conn() *sql.Conn {
	return mm.c.Conn()
}

type revisionManager struct {
	c dbmanager.PooledConn
	m *metadataManager
}

func newRevisionManager(c dbmanager.PooledConn) *revisionManager {
	return &revisionManager{c: c}
}

func (rm *revisionManager) conn() *sql.Conn {
	return rm.c.Conn()
}

type connectionManager struct {
	c dbmanager.PooledConn
}

func newConnectionManager(c dbmanager.PooledConn) *connectionManager {
	return &connectionManager{c: c}
}

// Close returns the underlying connection back to the pool.
func (cm *connectionManager) Close(ctx context.Context) {
	cm.c.Close(ctx)
}

type stewardCatalogDb struct {
	mm *metadataManager
	rm *revisionManager
	cm *connectionManager
}

func NewStewardCatalogDb(c dbmanager.PooledConn) (*metadataManager, *revisionManager, *connectionManager) {
	s := &stewardCatalogDb{}
	s.mm = newMetadataManager(c)
	s.rm = newRevisionManager(c)
	s.cm = newConnectionManager(c)
	s.rm.m = s.mm
	return s.mm, s.rm, s.cm
}
