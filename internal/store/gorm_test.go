package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	contactdomain "github.com/smallbiznis/orderdesk/internal/contact/domain"
	orderdomain "github.com/smallbiznis/orderdesk/internal/order/domain"
	productdomain "github.com/smallbiznis/orderdesk/internal/product/domain"
	tagdomain "github.com/smallbiznis/orderdesk/internal/tag/domain"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) (Store, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(
		&contactdomain.Contact{},
		&productdomain.Product{},
		&tagdomain.Tag{},
		&orderdomain.Order{},
		&orderdomain.OrderLine{},
		&orderdomain.OrderTag{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	return NewGormStore(db, nil), db, node
}

func newContact(node *snowflake.Node, name string) contactdomain.Contact {
	now := time.Now().UTC()
	return contactdomain.Contact{
		ID:        node.Generate(),
		Name:      name,
		Email:     "test@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newProduct(node *snowflake.Node, name string, price float64) productdomain.Product {
	now := time.Now().UTC()
	return productdomain.Product{
		ID:        node.Generate(),
		Name:      name,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRunInTxCommit(t *testing.T) {
	st, db, node := setupStore(t)
	ctx := context.Background()

	contact := newContact(node, "Jane Doe")
	err := RunInTx(ctx, st, func(tx Tx) error {
		return tx.InsertContact(ctx, &contact)
	})
	if err != nil {
		t.Fatalf("RunInTx: %v", err)
	}

	var count int64
	if err := db.Model(&contactdomain.Contact{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("contacts = %d, want 1", count)
	}
}

func TestRunInTxRollbackOnError(t *testing.T) {
	st, db, node := setupStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := RunInTx(ctx, st, func(tx Tx) error {
		contact := newContact(node, "Rolled Back")
		if err := tx.InsertContact(ctx, &contact); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTx err = %v, want %v", err, boom)
	}

	var count int64
	if err := db.Model(&contactdomain.Contact{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("contacts = %d, want 0 after rollback", count)
	}
}

func TestRunInTxRollbackOnPanic(t *testing.T) {
	st, db, node := setupStore(t)
	ctx := context.Background()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = RunInTx(ctx, st, func(tx Tx) error {
			contact := newContact(node, "Panicked")
			if err := tx.InsertContact(ctx, &contact); err != nil {
				return err
			}
			panic("mid-transaction failure")
		})
	}()

	var count int64
	if err := db.Model(&contactdomain.Contact{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("contacts = %d, want 0 after panic rollback", count)
	}
}

func TestEnsureTagReusesRow(t *testing.T) {
	st, db, node := setupStore(t)
	ctx := context.Background()

	var first, second tagdomain.Tag
	err := RunInTx(ctx, st, func(tx Tx) error {
		var err error
		first, err = tx.EnsureTag(ctx, node.Generate(), "priority")
		if err != nil {
			return err
		}
		second, err = tx.EnsureTag(ctx, node.Generate(), "priority")
		return err
	})
	if err != nil {
		t.Fatalf("RunInTx: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("tag ids differ: %d vs %d", first.ID, second.ID)
	}

	var count int64
	if err := db.Model(&tagdomain.Tag{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("tags = %d, want 1", count)
	}
}

func TestMissingProducts(t *testing.T) {
	st, _, node := setupStore(t)
	ctx := context.Background()

	known := newProduct(node, "Widget", 1.25)
	unknown := node.Generate()

	err := RunInTx(ctx, st, func(tx Tx) error {
		if err := tx.InsertProduct(ctx, &known); err != nil {
			return err
		}

		missing, err := tx.MissingProducts(ctx, []snowflake.ID{known.ID, unknown, unknown})
		if err != nil {
			return err
		}
		if len(missing) != 1 || missing[0] != unknown {
			t.Fatalf("missing = %v, want [%d]", missing, unknown)
		}

		missing, err = tx.MissingProducts(ctx, []snowflake.ID{known.ID})
		if err != nil {
			return err
		}
		if len(missing) != 0 {
			t.Fatalf("missing = %v, want none", missing)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx: %v", err)
	}
}

func TestBatchedRelationshipLoads(t *testing.T) {
	st, _, node := setupStore(t)
	ctx := context.Background()

	contact := newContact(node, "Jane Doe")
	product := newProduct(node, "Widget", 1.25)
	now := time.Now().UTC()

	orderIDs := make([]snowflake.ID, 0, 3)
	err := RunInTx(ctx, st, func(tx Tx) error {
		if err := tx.InsertContact(ctx, &contact); err != nil {
			return err
		}
		if err := tx.InsertProduct(ctx, &product); err != nil {
			return err
		}

		tag, err := tx.EnsureTag(ctx, node.Generate(), "rush")
		if err != nil {
			return err
		}

		for i := 0; i < 3; i++ {
			ord := orderdomain.Order{
				ID:        node.Generate(),
				Name:      fmt.Sprintf("SO%03d", i+1),
				ContactID: contact.ID,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.InsertOrder(ctx, &ord); err != nil {
				return err
			}
			lines := []orderdomain.OrderLine{
				{ID: node.Generate(), OrderID: ord.ID, ProductID: product.ID, Quantity: 1, Price: 1.25, CreatedAt: now},
				{ID: node.Generate(), OrderID: ord.ID, ProductID: product.ID, Quantity: 2, Price: 0.25, CreatedAt: now},
			}
			if err := tx.InsertOrderLines(ctx, lines); err != nil {
				return err
			}
			if err := tx.LinkOrderTag(ctx, ord.ID, tag.ID); err != nil {
				return err
			}
			orderIDs = append(orderIDs, ord.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	tx, err := st.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// force multiple round-trips
	tx.(*gormTx).chunk = 2

	lines, err := tx.OrderLinesByOrderIDs(ctx, orderIDs)
	if err != nil {
		t.Fatalf("OrderLinesByOrderIDs: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("line groups = %d, want 3", len(lines))
	}
	for _, id := range orderIDs {
		if len(lines[id]) != 2 {
			t.Fatalf("order %d lines = %d, want 2", id, len(lines[id]))
		}
	}

	tags, err := tx.TagsByOrderIDs(ctx, orderIDs)
	if err != nil {
		t.Fatalf("TagsByOrderIDs: %v", err)
	}
	for _, id := range orderIDs {
		if len(tags[id]) != 1 || tags[id][0].Name != "rush" {
			t.Fatalf("order %d tags = %v", id, tags[id])
		}
	}
}

func TestLinkOrderTagIdempotent(t *testing.T) {
	st, db, node := setupStore(t)
	ctx := context.Background()

	contact := newContact(node, "Jane Doe")
	now := time.Now().UTC()
	ord := orderdomain.Order{
		ID:        node.Generate(),
		Name:      "SO001",
		ContactID: contact.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := RunInTx(ctx, st, func(tx Tx) error {
		if err := tx.InsertContact(ctx, &contact); err != nil {
			return err
		}
		if err := tx.InsertOrder(ctx, &ord); err != nil {
			return err
		}
		tag, err := tx.EnsureTag(ctx, node.Generate(), "priority")
		if err != nil {
			return err
		}
		if err := tx.LinkOrderTag(ctx, ord.ID, tag.ID); err != nil {
			return err
		}
		return tx.LinkOrderTag(ctx, ord.ID, tag.ID)
	})
	if err != nil {
		t.Fatalf("RunInTx: %v", err)
	}

	var count int64
	if err := db.Model(&orderdomain.OrderTag{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("order_tags = %d, want 1", count)
	}
}

func TestFindOrderByIDAbsent(t *testing.T) {
	st, _, node := setupStore(t)
	ctx := context.Background()

	err := RunInTx(ctx, st, func(tx Tx) error {
		order, err := tx.FindOrderByID(ctx, node.Generate())
		if err != nil {
			return err
		}
		if order != nil {
			t.Fatalf("order = %+v, want nil", order)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx: %v", err)
	}
}

func TestUpdateOrderTotal(t *testing.T) {
	st, db, node := setupStore(t)
	ctx := context.Background()

	contact := newContact(node, "Jane Doe")
	now := time.Now().UTC()
	ord := orderdomain.Order{
		ID:        node.Generate(),
		Name:      "SO001",
		ContactID: contact.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := RunInTx(ctx, st, func(tx Tx) error {
		if err := tx.InsertContact(ctx, &contact); err != nil {
			return err
		}
		if err := tx.InsertOrder(ctx, &ord); err != nil {
			return err
		}
		return tx.UpdateOrderTotal(ctx, ord.ID, 2.75)
	})
	if err != nil {
		t.Fatalf("RunInTx: %v", err)
	}

	var stored orderdomain.Order
	if err := db.Raw(`SELECT id, amount_total FROM orders WHERE id = ?`, ord.ID).Scan(&stored).Error; err != nil {
		t.Fatalf("select: %v", err)
	}
	if stored.AmountTotal != 2.75 {
		t.Fatalf("amount_total = %v, want 2.75", stored.AmountTotal)
	}
}

func TestSuspendingUnavailableWithoutPool(t *testing.T) {
	st := NewPgxStore(nil, nil)

	if _, err := st.Begin(context.Background()); !errors.Is(err, ErrSuspendingUnavailable) {
		t.Fatalf("Begin err = %v, want %v", err, ErrSuspendingUnavailable)
	}
}
