// Package seed bootstraps a small demo dataset for local environments.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	contactdomain "github.com/smallbiznis/orderdesk/internal/contact/domain"
	orderdomain "github.com/smallbiznis/orderdesk/internal/order/domain"
	productdomain "github.com/smallbiznis/orderdesk/internal/product/domain"
	tagdomain "github.com/smallbiznis/orderdesk/internal/tag/domain"
	"gorm.io/gorm"
)

const (
	demoContactName  = "Jane Doe"
	demoContactEmail = "jane@example.com"
	demoOrderName    = "SO001"
	demoTagName      = "priority"
)

// EnsureDemoData seeds one contact, two products and one tagged order so a
// fresh install has something to list. Idempotent: a database with any
// contact row is left untouched.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&contactdomain.Contact{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()

		contact := contactdomain.Contact{
			ID:        node.Generate(),
			Name:      demoContactName,
			Email:     demoContactEmail,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&contact).Error; err != nil {
			return err
		}

		widget := productdomain.Product{
			ID:        node.Generate(),
			Name:      "Widget",
			Price:     1.25,
			CreatedAt: now,
			UpdatedAt: now,
		}
		gadget := productdomain.Product{
			ID:        node.Generate(),
			Name:      "Gadget",
			Price:     0.25,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&widget).Error; err != nil {
			return err
		}
		if err := tx.Create(&gadget).Error; err != nil {
			return err
		}

		order := orderdomain.Order{
			ID:        node.Generate(),
			Name:      demoOrderName,
			ContactID: contact.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		lines := []orderdomain.OrderLine{
			{
				ID:        node.Generate(),
				OrderID:   order.ID,
				ProductID: widget.ID,
				Quantity:  2,
				Price:     widget.Price,
				CreatedAt: now,
			},
			{
				ID:        node.Generate(),
				OrderID:   order.ID,
				ProductID: gadget.ID,
				Quantity:  1,
				Price:     gadget.Price,
				CreatedAt: now,
			},
		}
		order.AmountTotal = orderdomain.ComputeTotal(lines)
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}

		tag := tagdomain.Tag{
			ID:        node.Generate(),
			Name:      demoTagName,
			CreatedAt: now,
		}
		if err := tx.Create(&tag).Error; err != nil {
			return err
		}
		return tx.Create(&orderdomain.OrderTag{
			OrderID: order.ID,
			TagID:   tag.ID,
		}).Error
	})
}
