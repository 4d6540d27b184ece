// Package domain contains persistence models for products.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Product represents a sellable item. Price is the current list price;
// order lines capture their own price at creation time.
type Product struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Price     float64      `gorm:"not null;default:0" json:"price"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }
