package migration

import (
	"github.com/smallbiznis/orderdesk/internal/config"
	contactdomain "github.com/smallbiznis/orderdesk/internal/contact/domain"
	orderdomain "github.com/smallbiznis/orderdesk/internal/order/domain"
	productdomain "github.com/smallbiznis/orderdesk/internal/product/domain"
	"github.com/smallbiznis/orderdesk/internal/seed"
	tagdomain "github.com/smallbiznis/orderdesk/internal/tag/domain"
	"github.com/smallbiznis/orderdesk/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, dbcfg db.Config) error {
		if dbcfg.IsPostgres() {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Non-postgres engines are dev/test only; the model tags carry
			// enough schema for them.
			if err := conn.AutoMigrate(
				&contactdomain.Contact{},
				&productdomain.Product{},
				&tagdomain.Tag{},
				&orderdomain.Order{},
				&orderdomain.OrderLine{},
				&orderdomain.OrderTag{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDemo {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)
