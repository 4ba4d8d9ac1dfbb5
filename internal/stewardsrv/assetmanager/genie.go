package assetmanager

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/common/apperrors"
	"github.com/stewarddata/steward-internal/internal/common/middleware"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/config"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/notify"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/stewcommon"
	"github.com/stewarddata/steward-internal/pkg/types"
)

// GenieSpaceRequest names the data products a genie space is built over.
type GenieSpaceRequest struct {
	ProductIDs []string `json:"product_ids"`
}

// genieWaiters tracks in-flight provisioning goroutines so the server can
// drain them on shutdown and tests can wait for completion deterministically.
var genieWaiters sync.WaitGroup

// WaitForGenieSpaces blocks until all in-flight genie space provisioning
// goroutines have finished.
func WaitForGenieSpaces() {
	genieWaiters.Wait()
}

// InitiateGenieSpaceCreation starts simulated provisioning of a genie space
// over the given products. The caller is notified immediately that creation
// started and again once the space is ready. Provisioning runs in the
// background; the request returns as soon as the start notification is
// recorded.
func InitiateGenieSpaceCreation(ctx context.Context, req *GenieSpaceRequest) apperrors.Error {
	if req == nil || len(req.ProductIDs) == 0 {
		return ErrInvalidRequest.Msg("No product IDs provided.")
	}

	ids := strings.Join(req.ProductIDs, ", ")
	recipient := notify.RecipientFor(ctx)
	user := stewcommon.UserContextFromContext(ctx)
	originRequestID := middleware.RequestIdFromContext(ctx)

	started := &models.Notification{
		Type:        types.NotificationInfo,
		Title:       "Genie Space Creation Started",
		Description: "Genie Space creation for Data Product(s) " + ids + " initiated. You will be notified when it's ready.",
		Recipient:   recipient,
	}
	if err := notify.Notify(ctx, started); err != nil {
		// provisioning still proceeds; the completion notification is the one that matters
		log.Ctx(ctx).Warn().Err(err).Msg("failed to record genie space start notification")
	}

	log.Ctx(ctx).Info().Str("products", ids).Msg("genie space creation initiated")

	genieWaiters.Add(1)
	go func() {
		defer genieWaiters.Done()
		provisionGenieSpace(user, recipient, ids, originRequestID)
	}()

	return nil
}

// provisionGenieSpace simulates the provisioning delay and records the
// completion notification on a fresh connection. The request context is gone
// by the time this runs, so identity and the originating request id are
// carried over explicitly.
func provisionGenieSpace(user *stewcommon.UserContext, recipient, ids, originRequestID string) {
	time.Sleep(config.Config().GenieSpaceDelay())

	logger := log.Logger.With().Str("origin_request_id", originRequestID).Logger()
	ctx := logger.WithContext(context.Background())
	ctx = stewcommon.SetUserContext(ctx, user)
	ctx, err := db.ConnCtx(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to acquire connection for genie space completion")
		return
	}
	defer db.DB(ctx).Close(ctx)

	spaceURL := "https://workspace.example.com/genie-space/" + stewcommon.NewShortId()
	done := &models.Notification{
		Type:        types.NotificationSuccess,
		Title:       "Genie Space Ready",
		Description: "Your Genie Space for Data Product(s) " + ids + " is ready.",
		Link:        spaceURL,
		Recipient:   recipient,
	}
	if err := notify.Notify(ctx, done); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to record genie space completion notification")
		return
	}
	log.Ctx(ctx).Info().Str("products", ids).Str("link", spaceURL).Msg("genie space ready")
}
