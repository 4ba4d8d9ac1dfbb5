package schemamanager

import (
	"context"

	"github.com/google/uuid"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
)

// DataProductManager manages one data product document. ToJson returns the
// canonical stored form of the document, storage timestamps included.
type DataProductManager interface {
	ID() string
	Title() string
	Save(ctx context.Context) apperrors.Error
	Update(ctx context.Context) apperrors.Error
	ToJson(ctx context.Context) ([]byte, apperrors.Error)
}

// DataDomainManager manages one data domain.
type DataDomainManager interface {
	ID() uuid.UUID
	Name() string
	Save(ctx context.Context) apperrors.Error
	ToJson(ctx context.Context) ([]byte, apperrors.Error)
}

// TeamManager manages one team.
type TeamManager interface {
	ID() uuid.UUID
	Name() string
	Save(ctx context.Context) apperrors.Error
	ToJson(ctx context.Context) ([]byte, apperrors.Error)
}
