// Package store is the storage engine boundary. It exposes one capability
// set implemented twice: a blocking engine over pooled database/sql (gorm)
// and a suspending engine over native pgx, where every statement, commit and
// rollback is a context-aware wait. Both engines execute the same statements
// against the same schema; services are written once against these
// interfaces and never see which engine serves them.
package store

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	contactdomain "github.com/smallbiznis/orderdesk/internal/contact/domain"
	"github.com/smallbiznis/orderdesk/internal/execmode"
	orderdomain "github.com/smallbiznis/orderdesk/internal/order/domain"
	productdomain "github.com/smallbiznis/orderdesk/internal/product/domain"
	tagdomain "github.com/smallbiznis/orderdesk/internal/tag/domain"
)

// ErrSuspendingUnavailable is returned when the suspending engine was not
// configured (it requires postgres).
var ErrSuspendingUnavailable = errors.New("suspending_engine_unavailable")

// Store opens request-scoped units of work against one engine.
type Store interface {
	Mode() execmode.Mode
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a unit of work: every read and write of a request flows through
// exactly one Tx, which either commits or rolls back as a whole.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	InsertContact(ctx context.Context, contact *contactdomain.Contact) error
	ListContacts(ctx context.Context) ([]contactdomain.Contact, error)
	ContactExists(ctx context.Context, id snowflake.ID) (bool, error)

	InsertProduct(ctx context.Context, product *productdomain.Product) error
	ListProducts(ctx context.Context) ([]productdomain.Product, error)
	// MissingProducts returns the subset of ids with no product row.
	MissingProducts(ctx context.Context, ids []snowflake.ID) ([]snowflake.ID, error)

	// EnsureTag resolves a tag by its natural key, inserting a row with the
	// provided id only when the name is unused. Concurrent creates of the
	// same name converge on one row via the unique constraint.
	EnsureTag(ctx context.Context, id snowflake.ID, name string) (tagdomain.Tag, error)
	ListTags(ctx context.Context) ([]tagdomain.Tag, error)

	InsertOrder(ctx context.Context, order *orderdomain.Order) error
	InsertOrderLines(ctx context.Context, lines []orderdomain.OrderLine) error
	LinkOrderTag(ctx context.Context, orderID, tagID snowflake.ID) error
	UpdateOrderTotal(ctx context.Context, orderID snowflake.ID, total float64) error
	ListOrders(ctx context.Context) ([]*orderdomain.Order, error)
	FindOrderByID(ctx context.Context, id snowflake.ID) (*orderdomain.Order, error)

	// Batched relationship loads: one round-trip per relation per ID chunk,
	// regardless of how many parent orders are hydrated.
	OrderLinesByOrderIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID][]orderdomain.OrderLine, error)
	TagsByOrderIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID][]tagdomain.Tag, error)
}

// Set bundles both engines so services can be written once and select per
// request.
type Set struct {
	Blocking   Store
	Suspending Store
}

// For returns the engine for the requested execution mode.
func (s Set) For(mode execmode.Mode) Store {
	if mode == execmode.Suspending {
		return s.Suspending
	}
	return s.Blocking
}

// RunInTx runs fn inside one unit of work. Rollback is guaranteed on error,
// panic, and context cancellation before the failure is surfaced; commit
// happens only after fn returns cleanly. Rollback runs on a detached
// context so a canceled request still releases its transaction.
func RunInTx(ctx context.Context, st Store, fn func(tx Tx) error) error {
	tx, err := st.Begin(ctx)
	if err != nil {
		return err
	}

	done := false
	defer func() {
		if !done {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	done = true
	return nil
}
