package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smallbiznis/orderdesk/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Params lists the storage engine dependencies.
type Params struct {
	fx.In

	DB      *gorm.DB
	Pool    *pgxpool.Pool `optional:"true"`
	Runtime *config.RuntimeHolder
}

// NewSet wires both engines. The suspending side degrades to an unavailable
// store when no pgx pool was opened.
func NewSet(p Params) Set {
	return Set{
		Blocking:   NewGormStore(p.DB, p.Runtime),
		Suspending: NewPgxStore(p.Pool, p.Runtime),
	}
}

// Module provides the engine set.
var Module = fx.Module("store",
	fx.Provide(NewSet),
)
