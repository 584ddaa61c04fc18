// Package web is the HTTP surface of the dealership: session handling,
// access gates, form revalidation and the account and inventory pages.
package web

import (
	"context"

	"github.com/dmitrijs2005/csemotors/internal/logging"
	"github.com/dmitrijs2005/csemotors/internal/server/auth"
	"github.com/dmitrijs2005/csemotors/internal/server/config"
	"github.com/dmitrijs2005/csemotors/internal/server/flash"
	"github.com/dmitrijs2005/csemotors/internal/server/metrics"
	"github.com/dmitrijs2005/csemotors/internal/server/models"
	"github.com/dmitrijs2005/csemotors/internal/server/storage"
)

// Accounts is the account workflow the handlers depend on.
type Accounts interface {
	Register(ctx context.Context, firstName, lastName, email, password string) (*models.Account, error)
	Login(ctx context.Context, email, password string) (*models.Account, string, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	Account(ctx context.Context, id int64) (*models.Account, error)
	UpdateProfile(ctx context.Context, id int64, firstName, lastName, email string) (*models.Account, string, error)
	UpdatePassword(ctx context.Context, id int64, password string) error
}

// Inventory is the catalog workflow the handlers depend on.
type Inventory interface {
	Classifications(ctx context.Context) ([]models.Classification, error)
	VehiclesByClassification(ctx context.Context, id int64) (*models.Classification, []models.Vehicle, error)
	Vehicle(ctx context.Context, id int64) (*models.Vehicle, error)
	AddClassification(ctx context.Context, name string) (*models.Classification, error)
	AddVehicle(ctx context.Context, v *models.Vehicle) (*models.Vehicle, error)
	ImageUploadURL(ctx context.Context, filename, contentType string) (*storage.ImageUpload, error)
}

// Deps groups the collaborators of a Handler.
type Deps struct {
	Accounts   Accounts
	Inventory  Inventory
	Codec      *auth.Codec
	FlashStore flash.Store
	Renderer   Renderer
	Metrics    *metrics.Metrics
	Logger     logging.Logger
}

type Handler struct {
	accounts      Accounts
	inventory     Inventory
	codec         *auth.Codec
	flashStore    flash.Store
	renderer      Renderer
	metrics       *metrics.Metrics
	logger        logging.Logger
	secureCookies bool

	schemas schemas
}

func NewHandler(cfg *config.Config, deps Deps) *Handler {
	h := &Handler{
		accounts:      deps.Accounts,
		inventory:     deps.Inventory,
		codec:         deps.Codec,
		flashStore:    deps.FlashStore,
		renderer:      deps.Renderer,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		secureCookies: !cfg.Development(),
	}
	if h.logger == nil {
		h.logger = logging.Nop()
	}
	h.logger = h.logger.With("module", "web")
	if h.renderer == nil {
		h.renderer = DefaultRenderer()
	}
	if h.flashStore == nil {
		h.flashStore = flash.NewCookieStore(flash.CookieOptions{Secure: h.secureCookies})
	}
	h.schemas = newSchemas(h.accounts)
	return h
}
