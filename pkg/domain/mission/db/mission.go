package db

import (
	"context"

	"github.com/opensdc/dbflow/pkg/domain"
)

// Interface is the catalog client for the mission entity tree:
// missions, satellites, instruments, products and inspectors.
type Interface interface {
	// Retrieve the single mission of the catalog.
	//
	// When name is empty and the catalog holds exactly one mission, that one
	// is returned. More than one mission without a name is ErrTooMuch;
	// a missing name is ErrMissing.
	GetMission(ctx context.Context, name string) (domain.Mission, error)

	// Register a mission if it does not exist yet, by natural key (name).
	//
	// Returns the stored row either way.
	RegisterMission(ctx context.Context, mission domain.Mission) (domain.Mission, error)

	RegisterSatellite(ctx context.Context, satellite domain.Satellite) (domain.Satellite, error)

	RegisterInstrument(ctx context.Context, instrument domain.Instrument) (domain.Instrument, error)

	// Register a product and its instrument link, by natural key
	// (name, instrument).
	RegisterProduct(ctx context.Context, product domain.Product) (domain.Product, error)

	// Register an inspector for a product. A product has exactly one
	// inspector; re-registering replaces its mutable attributes.
	RegisterInspector(ctx context.Context, inspector domain.Inspector) (domain.Inspector, error)

	GetProduct(ctx context.Context, productId int64) (domain.Product, error)

	GetProductByName(ctx context.Context, name string) (domain.Product, error)

	Products(ctx context.Context) ([]domain.Product, error)

	// Inspectors marked active, in id order.
	ActiveInspectors(ctx context.Context) ([]domain.Inspector, error)

	// The full ancestry of a product: mission, satellite, instrument,
	// product and its inspector.
	Traceback(ctx context.Context, productId int64) (domain.Traceback, error)
}
