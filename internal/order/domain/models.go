// Package domain contains persistence models for orders and their lines.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	tagdomain "github.com/smallbiznis/orderdesk/internal/tag/domain"
	"gorm.io/datatypes"
)

// Order is the aggregate root. Lines and tags are relationship data: they
// are never populated implicitly by the storage engine and must be attached
// through the batched relationship load inside the owning transaction.
// Reading them before that fails with ErrLinesNotLoaded / ErrTagsNotLoaded
// instead of issuing a hidden query outside the transaction.
type Order struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"not null" json:"name"`
	ContactID   snowflake.ID      `gorm:"not null;index" json:"contact_id"`
	AmountTotal float64           `gorm:"not null;default:0" json:"amount_total"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	lines       []OrderLine
	linesLoaded bool
	tags        []tagdomain.Tag
	tagsLoaded  bool
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// OrderLine belongs exclusively to one order; deleting the order deletes
// its lines. Price is captured at line creation and never re-read from the
// product, so historical totals stay stable.
type OrderLine struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID   snowflake.ID `gorm:"not null;index;constraint:OnDelete:CASCADE" json:"order_id"`
	ProductID snowflake.ID `gorm:"not null;index" json:"product_id"`
	Quantity  int64        `gorm:"not null" json:"quantity"`
	Price     float64      `gorm:"not null" json:"price"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (OrderLine) TableName() string { return "order_lines" }

// OrderTag is the order/tag association row. Pure association: neither side
// owns the other.
type OrderTag struct {
	OrderID snowflake.ID `gorm:"primaryKey;uniqueIndex:ux_order_tags_pair" json:"order_id"`
	TagID   snowflake.ID `gorm:"primaryKey;uniqueIndex:ux_order_tags_pair" json:"tag_id"`
}

// TableName sets the database table name.
func (OrderTag) TableName() string { return "order_tags" }

// AttachLines marks the line relationship as loaded.
func (o *Order) AttachLines(lines []OrderLine) {
	o.lines = lines
	o.linesLoaded = true
}

// AttachTags marks the tag relationship as loaded.
func (o *Order) AttachTags(tags []tagdomain.Tag) {
	o.tags = tags
	o.tagsLoaded = true
}

// Lines returns the loaded order lines, or ErrLinesNotLoaded when the
// relationship was never hydrated inside a transaction.
func (o *Order) Lines() ([]OrderLine, error) {
	if !o.linesLoaded {
		return nil, ErrLinesNotLoaded
	}
	return o.lines, nil
}

// Tags returns the loaded tags, or ErrTagsNotLoaded when the relationship
// was never hydrated inside a transaction.
func (o *Order) Tags() ([]tagdomain.Tag, error) {
	if !o.tagsLoaded {
		return nil, ErrTagsNotLoaded
	}
	return o.tags, nil
}

// Hydrated reports whether both relationships were loaded.
func (o *Order) Hydrated() bool {
	return o.linesLoaded && o.tagsLoaded
}
