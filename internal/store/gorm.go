package store

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderdesk/internal/config"
	contactdomain "github.com/smallbiznis/orderdesk/internal/contact/domain"
	"github.com/smallbiznis/orderdesk/internal/execmode"
	orderdomain "github.com/smallbiznis/orderdesk/internal/order/domain"
	productdomain "github.com/smallbiznis/orderdesk/internal/product/domain"
	tagdomain "github.com/smallbiznis/orderdesk/internal/tag/domain"
	"gorm.io/gorm"
)

// gormStore is the blocking engine. Statements run over the pooled
// database/sql connection; the goroutine holds its worker for the duration
// of each round-trip.
type gormStore struct {
	db *gorm.DB
	rt *config.RuntimeHolder
}

// NewGormStore builds the blocking store over an open gorm handle.
func NewGormStore(db *gorm.DB, rt *config.RuntimeHolder) Store {
	return &gormStore{db: db, rt: rt}
}

func (s *gormStore) Mode() execmode.Mode { return execmode.Blocking }

func (s *gormStore) Begin(ctx context.Context) (Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormTx{tx: tx, chunk: loaderChunkSize(s.rt)}, nil
}

func loaderChunkSize(rt *config.RuntimeHolder) int {
	if rt == nil {
		return config.DefaultRuntimeConfig().LoaderChunkSize
	}
	return rt.Get().LoaderChunkSize
}

type gormTx struct {
	tx    *gorm.DB
	chunk int
}

func (t *gormTx) Commit(ctx context.Context) error {
	_ = ctx
	return t.tx.Commit().Error
}

func (t *gormTx) Rollback(ctx context.Context) error {
	_ = ctx
	err := t.tx.Rollback().Error
	if errors.Is(err, gorm.ErrInvalidTransaction) {
		// Already finished; releasing twice is not an error.
		return nil
	}
	return err
}

func (t *gormTx) InsertContact(ctx context.Context, contact *contactdomain.Contact) error {
	return t.tx.WithContext(ctx).Exec(
		`INSERT INTO contacts (id, name, email, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		contact.ID,
		contact.Name,
		contact.Email,
		jsonMap(contact.Metadata),
		contact.CreatedAt,
		contact.UpdatedAt,
	).Error
}

func (t *gormTx) ListContacts(ctx context.Context) ([]contactdomain.Contact, error) {
	contacts := make([]contactdomain.Contact, 0)
	err := t.tx.WithContext(ctx).Raw(
		`SELECT id, name, email, metadata, created_at, updated_at FROM contacts ORDER BY id`,
	).Scan(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (t *gormTx) ContactExists(ctx context.Context, id snowflake.ID) (bool, error) {
	var count int64
	err := t.tx.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM contacts WHERE id = ?`, id,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (t *gormTx) InsertProduct(ctx context.Context, product *productdomain.Product) error {
	return t.tx.WithContext(ctx).Exec(
		`INSERT INTO products (id, name, price, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		product.ID,
		product.Name,
		product.Price,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (t *gormTx) ListProducts(ctx context.Context) ([]productdomain.Product, error) {
	products := make([]productdomain.Product, 0)
	err := t.tx.WithContext(ctx).Raw(
		`SELECT id, name, price, created_at, updated_at FROM products ORDER BY id`,
	).Scan(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (t *gormTx) MissingProducts(ctx context.Context, ids []snowflake.ID) ([]snowflake.ID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found := make([]snowflake.ID, 0, len(ids))
	for _, chunk := range chunkIDs(ids, t.chunk) {
		var rows []snowflake.ID
		err := t.tx.WithContext(ctx).Raw(
			`SELECT id FROM products WHERE id IN ?`, chunk,
		).Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		found = append(found, rows...)
	}
	return missingIDs(ids, found), nil
}

func (t *gormTx) EnsureTag(ctx context.Context, id snowflake.ID, name string) (tagdomain.Tag, error) {
	err := t.tx.WithContext(ctx).Exec(
		`INSERT INTO tags (id, name, created_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (name) DO NOTHING`,
		id,
		name,
	).Error
	if err != nil {
		return tagdomain.Tag{}, err
	}

	var tag tagdomain.Tag
	err = t.tx.WithContext(ctx).Raw(
		`SELECT id, name, created_at FROM tags WHERE name = ?`, name,
	).Scan(&tag).Error
	if err != nil {
		return tagdomain.Tag{}, err
	}
	if tag.ID == 0 {
		return tagdomain.Tag{}, gorm.ErrRecordNotFound
	}
	return tag, nil
}

func (t *gormTx) ListTags(ctx context.Context) ([]tagdomain.Tag, error) {
	tags := make([]tagdomain.Tag, 0)
	err := t.tx.WithContext(ctx).Raw(
		`SELECT id, name, created_at FROM tags ORDER BY id`,
	).Scan(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (t *gormTx) InsertOrder(ctx context.Context, order *orderdomain.Order) error {
	return t.tx.WithContext(ctx).Exec(
		`INSERT INTO orders (id, name, contact_id, amount_total, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.Name,
		order.ContactID,
		order.AmountTotal,
		jsonMap(order.Metadata),
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (t *gormTx) InsertOrderLines(ctx context.Context, lines []orderdomain.OrderLine) error {
	for _, line := range lines {
		err := t.tx.WithContext(ctx).Exec(
			`INSERT INTO order_lines (id, order_id, product_id, quantity, price, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			line.ID,
			line.OrderID,
			line.ProductID,
			line.Quantity,
			line.Price,
			line.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *gormTx) LinkOrderTag(ctx context.Context, orderID, tagID snowflake.ID) error {
	return t.tx.WithContext(ctx).Exec(
		`INSERT INTO order_tags (order_id, tag_id)
		 VALUES (?, ?)
		 ON CONFLICT (order_id, tag_id) DO NOTHING`,
		orderID,
		tagID,
	).Error
}

func (t *gormTx) UpdateOrderTotal(ctx context.Context, orderID snowflake.ID, total float64) error {
	return t.tx.WithContext(ctx).Exec(
		`UPDATE orders SET amount_total = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		total,
		orderID,
	).Error
}

func (t *gormTx) ListOrders(ctx context.Context) ([]*orderdomain.Order, error) {
	orders := make([]*orderdomain.Order, 0)
	err := t.tx.WithContext(ctx).Raw(
		`SELECT id, name, contact_id, amount_total, metadata, created_at, updated_at FROM orders ORDER BY id`,
	).Scan(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (t *gormTx) FindOrderByID(ctx context.Context, id snowflake.ID) (*orderdomain.Order, error) {
	var order orderdomain.Order
	err := t.tx.WithContext(ctx).Raw(
		`SELECT id, name, contact_id, amount_total, metadata, created_at, updated_at
		 FROM orders WHERE id = ?`,
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (t *gormTx) OrderLinesByOrderIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID][]orderdomain.OrderLine, error) {
	if len(ids) == 0 {
		return map[snowflake.ID][]orderdomain.OrderLine{}, nil
	}
	lines := make([]orderdomain.OrderLine, 0)
	for _, chunk := range chunkIDs(ids, t.chunk) {
		var rows []orderdomain.OrderLine
		err := t.tx.WithContext(ctx).Raw(
			`SELECT id, order_id, product_id, quantity, price, created_at
			 FROM order_lines WHERE order_id IN ? ORDER BY order_id, id`,
			chunk,
		).Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		lines = append(lines, rows...)
	}
	return groupLines(lines), nil
}

func (t *gormTx) TagsByOrderIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID][]tagdomain.Tag, error) {
	if len(ids) == 0 {
		return map[snowflake.ID][]tagdomain.Tag{}, nil
	}
	joined := make([]taggedRow, 0)
	for _, chunk := range chunkIDs(ids, t.chunk) {
		var rows []struct {
			OrderID   snowflake.ID
			ID        snowflake.ID
			Name      string
			CreatedAt time.Time
		}
		err := t.tx.WithContext(ctx).Raw(
			`SELECT ot.order_id AS order_id, t.id AS id, t.name AS name, t.created_at AS created_at
			 FROM order_tags ot
			 JOIN tags t ON t.id = ot.tag_id
			 WHERE ot.order_id IN ? ORDER BY ot.order_id, t.id`,
			chunk,
		).Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			joined = append(joined, taggedRow{
				OrderID: row.OrderID,
				Tag: tagdomain.Tag{
					ID:        row.ID,
					Name:      row.Name,
					CreatedAt: row.CreatedAt,
				},
			})
		}
	}
	return groupTags(joined), nil
}
