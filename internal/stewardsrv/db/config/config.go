package config

import (
	"github.com/stewarddata/steward-internal/internal/stewardsrv/config"
)

func StewardDbDsn() string {
	return config.Config().Database.Dsn()
}

func MaxOpenConns() int {
	return config.Config().Database.MaxOpenConns
}

func MaxIdleConns() int {
	return config.Config().Database.MaxIdleConns
}

// CompressRevisions reports whether product revision snapshots are
// snappy-compressed before they are written.
func CompressRevisions() bool {
	return config.Config().Products.CompressRevisions
}
