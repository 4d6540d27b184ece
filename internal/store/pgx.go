package store

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smallbiznis/orderdesk/internal/config"
	contactdomain "github.com/smallbiznis/orderdesk/internal/contact/domain"
	"github.com/smallbiznis/orderdesk/internal/execmode"
	orderdomain "github.com/smallbiznis/orderdesk/internal/order/domain"
	productdomain "github.com/smallbiznis/orderdesk/internal/product/domain"
	tagdomain "github.com/smallbiznis/orderdesk/internal/tag/domain"
)

// pgxStore is the suspending engine. Every statement, commit and rollback
// takes the request context: waiting on storage I/O parks the goroutine
// instead of pinning a pool worker, and cancellation interrupts the wait.
type pgxStore struct {
	pool *pgxpool.Pool
	rt   *config.RuntimeHolder
}

// NewPgxStore builds the suspending store over an open pgx pool. A nil pool
// produces a store whose Begin fails with ErrSuspendingUnavailable, so the
// route surface stays uniform when the engine is not configured.
func NewPgxStore(pool *pgxpool.Pool, rt *config.RuntimeHolder) Store {
	return &pgxStore{pool: pool, rt: rt}
}

func (s *pgxStore) Mode() execmode.Mode { return execmode.Suspending }

func (s *pgxStore) Begin(ctx context.Context) (Tx, error) {
	if s.pool == nil {
		return nil, ErrSuspendingUnavailable
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxTx{tx: tx, chunk: loaderChunkSize(s.rt)}, nil
}

type pgxTx struct {
	tx    pgx.Tx
	chunk int
}

func (t *pgxTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgxTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err == pgx.ErrTxClosed {
		return nil
	}
	return err
}

func (t *pgxTx) InsertContact(ctx context.Context, contact *contactdomain.Contact) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO contacts (id, name, email, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		int64(contact.ID),
		contact.Name,
		contact.Email,
		jsonMap(contact.Metadata),
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	return err
}

func (t *pgxTx) ListContacts(ctx context.Context) ([]contactdomain.Contact, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, name, email, metadata, created_at, updated_at FROM contacts ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make([]contactdomain.Contact, 0)
	for rows.Next() {
		var contact contactdomain.Contact
		if err := rows.Scan(
			&contact.ID,
			&contact.Name,
			&contact.Email,
			&contact.Metadata,
			&contact.CreatedAt,
			&contact.UpdatedAt,
		); err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}

func (t *pgxTx) ContactExists(ctx context.Context, id snowflake.ID) (bool, error) {
	var count int64
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(1) FROM contacts WHERE id = $1`, int64(id),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (t *pgxTx) InsertProduct(ctx context.Context, product *productdomain.Product) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO products (id, name, price, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		int64(product.ID),
		product.Name,
		product.Price,
		product.CreatedAt,
		product.UpdatedAt,
	)
	return err
}

func (t *pgxTx) ListProducts(ctx context.Context) ([]productdomain.Product, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, name, price, created_at, updated_at FROM products ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]productdomain.Product, 0)
	for rows.Next() {
		var product productdomain.Product
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Price,
			&product.CreatedAt,
			&product.UpdatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (t *pgxTx) MissingProducts(ctx context.Context, ids []snowflake.ID) ([]snowflake.ID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found := make([]snowflake.ID, 0, len(ids))
	for _, chunk := range chunkIDs(ids, t.chunk) {
		rows, err := t.tx.Query(ctx,
			`SELECT id FROM products WHERE id = ANY($1)`, int64s(chunk),
		)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var id snowflake.ID
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			found = append(found, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return missingIDs(ids, found), nil
}

func (t *pgxTx) EnsureTag(ctx context.Context, id snowflake.ID, name string) (tagdomain.Tag, error) {
	// DO UPDATE instead of DO NOTHING so RETURNING yields the surviving row
	// in one round-trip.
	var tag tagdomain.Tag
	err := t.tx.QueryRow(ctx,
		`INSERT INTO tags (id, name, created_at)
		 VALUES ($1, $2, CURRENT_TIMESTAMP)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, name, created_at`,
		int64(id),
		name,
	).Scan(&tag.ID, &tag.Name, &tag.CreatedAt)
	if err != nil {
		return tagdomain.Tag{}, err
	}
	return tag, nil
}

func (t *pgxTx) ListTags(ctx context.Context) ([]tagdomain.Tag, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, name, created_at FROM tags ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]tagdomain.Tag, 0)
	for rows.Next() {
		var tag tagdomain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (t *pgxTx) InsertOrder(ctx context.Context, order *orderdomain.Order) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO orders (id, name, contact_id, amount_total, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		int64(order.ID),
		order.Name,
		int64(order.ContactID),
		order.AmountTotal,
		jsonMap(order.Metadata),
		order.CreatedAt,
		order.UpdatedAt,
	)
	return err
}

func (t *pgxTx) InsertOrderLines(ctx context.Context, lines []orderdomain.OrderLine) error {
	for _, line := range lines {
		_, err := t.tx.Exec(ctx,
			`INSERT INTO order_lines (id, order_id, product_id, quantity, price, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			int64(line.ID),
			int64(line.OrderID),
			int64(line.ProductID),
			line.Quantity,
			line.Price,
			line.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *pgxTx) LinkOrderTag(ctx context.Context, orderID, tagID snowflake.ID) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO order_tags (order_id, tag_id)
		 VALUES ($1, $2)
		 ON CONFLICT (order_id, tag_id) DO NOTHING`,
		int64(orderID),
		int64(tagID),
	)
	return err
}

func (t *pgxTx) UpdateOrderTotal(ctx context.Context, orderID snowflake.ID, total float64) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE orders SET amount_total = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		total,
		int64(orderID),
	)
	return err
}

func (t *pgxTx) ListOrders(ctx context.Context) ([]*orderdomain.Order, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, name, contact_id, amount_total, metadata, created_at, updated_at FROM orders ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*orderdomain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (t *pgxTx) FindOrderByID(ctx context.Context, id snowflake.ID) (*orderdomain.Order, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, name, contact_id, amount_total, metadata, created_at, updated_at
		 FROM orders WHERE id = $1`,
		int64(id),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanOrder(rows)
}

func scanOrder(rows pgx.Rows) (*orderdomain.Order, error) {
	var order orderdomain.Order
	if err := rows.Scan(
		&order.ID,
		&order.Name,
		&order.ContactID,
		&order.AmountTotal,
		&order.Metadata,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &order, nil
}

func (t *pgxTx) OrderLinesByOrderIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID][]orderdomain.OrderLine, error) {
	if len(ids) == 0 {
		return map[snowflake.ID][]orderdomain.OrderLine{}, nil
	}
	lines := make([]orderdomain.OrderLine, 0)
	for _, chunk := range chunkIDs(ids, t.chunk) {
		rows, err := t.tx.Query(ctx,
			`SELECT id, order_id, product_id, quantity, price, created_at
			 FROM order_lines WHERE order_id = ANY($1) ORDER BY order_id, id`,
			int64s(chunk),
		)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var line orderdomain.OrderLine
			if err := rows.Scan(
				&line.ID,
				&line.OrderID,
				&line.ProductID,
				&line.Quantity,
				&line.Price,
				&line.CreatedAt,
			); err != nil {
				rows.Close()
				return nil, err
			}
			lines = append(lines, line)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return groupLines(lines), nil
}

func (t *pgxTx) TagsByOrderIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID][]tagdomain.Tag, error) {
	if len(ids) == 0 {
		return map[snowflake.ID][]tagdomain.Tag{}, nil
	}
	joined := make([]taggedRow, 0)
	for _, chunk := range chunkIDs(ids, t.chunk) {
		rows, err := t.tx.Query(ctx,
			`SELECT ot.order_id, t.id, t.name, t.created_at
			 FROM order_tags ot
			 JOIN tags t ON t.id = ot.tag_id
			 WHERE ot.order_id = ANY($1) ORDER BY ot.order_id, t.id`,
			int64s(chunk),
		)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var row taggedRow
			if err := rows.Scan(
				&row.OrderID,
				&row.Tag.ID,
				&row.Tag.Name,
				&row.Tag.CreatedAt,
			); err != nil {
				rows.Close()
				return nil, err
			}
			joined = append(joined, row)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return groupTags(joined), nil
}
