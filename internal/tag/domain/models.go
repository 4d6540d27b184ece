// Package domain contains persistence models for tags.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Tag labels orders. Name is the natural key: creating a tag with an
// existing name reuses the stored row.
type Tag struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null;uniqueIndex:ux_tags_name" json:"name"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Tag) TableName() string { return "tags" }
