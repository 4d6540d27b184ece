package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	tagdomain "github.com/smallbiznis/orderdesk/internal/tag/domain"
	"gorm.io/datatypes"
)

// CreateLineRequest carries one order line of a create request. Price and
// quantity come from the caller; the line total is derived server-side.
type CreateLineRequest struct {
	ProductID snowflake.ID
	Quantity  int64
	Price     float64
}

// CreateOrderRequest carries validated input for atomic order creation.
// Tags are referenced by name; unknown names are created inside the same
// transaction. A caller-supplied amount_total has no field here on purpose:
// totals are never trusted from the outside.
type CreateOrderRequest struct {
	Name      string
	ContactID snowflake.ID
	Lines     []CreateLineRequest
	TagNames  []string
	Metadata  map[string]any
}

// OrderView is the fully hydrated read model handed across the service
// boundary. It only exists for orders whose relationships were loaded.
type OrderView struct {
	ID          snowflake.ID      `json:"id"`
	Name        string            `json:"name"`
	ContactID   snowflake.ID      `json:"contact_id"`
	AmountTotal float64           `json:"amount_total"`
	Lines       []OrderLine       `json:"order_lines"`
	Tags        []tagdomain.Tag   `json:"tags"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
}

// Service exposes order use-cases.
type Service interface {
	Create(context.Context, CreateOrderRequest) (OrderView, error)
	List(context.Context) ([]OrderView, error)
	Get(ctx context.Context, id snowflake.ID) (OrderView, error)
}

var (
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidContact  = errors.New("invalid_contact")
	ErrInvalidProduct  = errors.New("invalid_product")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidTag      = errors.New("invalid_tag")
	ErrNoLines         = errors.New("no_lines")
	ErrNotFound        = errors.New("not_found")

	// Referential failures: the write referenced a row that does not exist.
	ErrContactNotFound = errors.New("contact_not_found")
	ErrProductNotFound = errors.New("product_not_found")

	// Relationship guard failures: code touched lines or tags without
	// running the batched load inside the owning transaction.
	ErrLinesNotLoaded = errors.New("order_lines_not_loaded")
	ErrTagsNotLoaded  = errors.New("order_tags_not_loaded")
)

// View builds the read model for a hydrated order. Totals are recomputed
// from the freshly loaded lines, never read back from the caller or trusted
// from a stale column.
func (o *Order) View() (OrderView, error) {
	lines, err := o.Lines()
	if err != nil {
		return OrderView{}, err
	}
	tags, err := o.Tags()
	if err != nil {
		return OrderView{}, err
	}
	if lines == nil {
		lines = []OrderLine{}
	}
	if tags == nil {
		tags = []tagdomain.Tag{}
	}
	return OrderView{
		ID:          o.ID,
		Name:        o.Name,
		ContactID:   o.ContactID,
		AmountTotal: ComputeTotal(lines),
		Lines:       lines,
		Tags:        tags,
		Metadata:    o.Metadata,
	}, nil
}
