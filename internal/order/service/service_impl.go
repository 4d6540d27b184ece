package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderdesk/internal/execmode"
	"github.com/smallbiznis/orderdesk/internal/observability/metrics"
	"github.com/smallbiznis/orderdesk/internal/order/domain"
	"github.com/smallbiznis/orderdesk/internal/store"
	tagdomain "github.com/smallbiznis/orderdesk/internal/tag/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Stores  store.Set
	Metrics *metrics.Metrics
}

type Service struct {
	log     *zap.Logger
	genID   *snowflake.Node
	stores  store.Set
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("order.service"),
		genID:   p.GenID,
		stores:  p.Stores,
		metrics: p.Metrics,
	}
}

// Create persists an order with its lines and tags in one unit of work. Any
// failure after the first write rolls the whole request back: no partial
// orders, no orphan lines, no dangling tag links. The stored amount_total is
// always derived from the inserted lines.
func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (domain.OrderView, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.OrderView{}, domain.ErrInvalidName
	}
	if req.ContactID == 0 {
		return domain.OrderView{}, domain.ErrInvalidContact
	}
	if len(req.Lines) == 0 {
		return domain.OrderView{}, domain.ErrNoLines
	}
	for _, line := range req.Lines {
		if err := domain.ValidateLine(line); err != nil {
			return domain.OrderView{}, err
		}
	}
	tagNames, err := normalizeTagNames(req.TagNames)
	if err != nil {
		return domain.OrderView{}, err
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:        s.genID.Generate(),
		Name:      name,
		ContactID: req.ContactID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Metadata != nil {
		order.Metadata = datatypes.JSONMap(req.Metadata)
	}

	lines := make([]domain.OrderLine, 0, len(req.Lines))
	productIDs := make([]snowflake.ID, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, domain.OrderLine{
			ID:        s.genID.Generate(),
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
			CreatedAt: now,
		})
		productIDs = append(productIDs, line.ProductID)
	}

	mode := execmode.FromContext(ctx)
	err = store.RunInTx(ctx, s.stores.For(mode), func(tx store.Tx) error {
		ok, err := tx.ContactExists(ctx, order.ContactID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrContactNotFound
		}

		missing, err := tx.MissingProducts(ctx, productIDs)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return domain.ErrProductNotFound
		}

		if err := tx.InsertOrder(ctx, &order); err != nil {
			return err
		}
		if err := tx.InsertOrderLines(ctx, lines); err != nil {
			return err
		}

		tags := make([]tagdomain.Tag, 0, len(tagNames))
		for _, tagName := range tagNames {
			tag, err := tx.EnsureTag(ctx, s.genID.Generate(), tagName)
			if err != nil {
				return err
			}
			if err := tx.LinkOrderTag(ctx, order.ID, tag.ID); err != nil {
				return err
			}
			tags = append(tags, tag)
		}

		total := domain.ComputeTotal(lines)
		if err := tx.UpdateOrderTotal(ctx, order.ID, total); err != nil {
			return err
		}
		order.AmountTotal = total

		order.AttachLines(lines)
		order.AttachTags(tags)
		return nil
	})
	if err != nil {
		s.metrics.RecordTxRollback(ctx, string(mode), rollbackReason(err))
		return domain.OrderView{}, err
	}

	view, err := order.View()
	if err != nil {
		return domain.OrderView{}, err
	}

	s.metrics.RecordOrderCreated(ctx, string(mode), len(lines))
	s.log.Info("order created",
		zap.Int64("order_id", order.ID.Int64()),
		zap.Int("lines", len(lines)),
		zap.Float64("amount_total", view.AmountTotal),
	)
	return view, nil
}

// List returns every order fully hydrated. Lines and tags are fetched with
// one batched query per relation per ID chunk inside the same transaction
// that read the orders, so the round-trip count stays flat as the order
// count grows.
func (s *Service) List(ctx context.Context) ([]domain.OrderView, error) {
	var views []domain.OrderView
	mode := execmode.FromContext(ctx)
	err := store.RunInTx(ctx, s.stores.For(mode), func(tx store.Tx) error {
		orders, err := tx.ListOrders(ctx)
		if err != nil {
			return err
		}
		if err := s.hydrate(ctx, tx, mode, orders); err != nil {
			return err
		}
		views = make([]domain.OrderView, 0, len(orders))
		for _, order := range orders {
			view, err := order.View()
			if err != nil {
				return err
			}
			views = append(views, view)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.OrderView, error) {
	var view domain.OrderView
	mode := execmode.FromContext(ctx)
	err := store.RunInTx(ctx, s.stores.For(mode), func(tx store.Tx) error {
		order, err := tx.FindOrderByID(ctx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if err := s.hydrate(ctx, tx, mode, []*domain.Order{order}); err != nil {
			return err
		}
		view, err = order.View()
		return err
	})
	if err != nil {
		return domain.OrderView{}, err
	}
	return view, nil
}

// hydrate attaches lines and tags to every order in one batched load per
// relation.
func (s *Service) hydrate(ctx context.Context, tx store.Tx, mode execmode.Mode, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]snowflake.ID, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}

	lines, err := tx.OrderLinesByOrderIDs(ctx, ids)
	if err != nil {
		return err
	}
	s.metrics.RecordRelationshipLoad(ctx, "order_lines", string(mode))

	tags, err := tx.TagsByOrderIDs(ctx, ids)
	if err != nil {
		return err
	}
	s.metrics.RecordRelationshipLoad(ctx, "tags", string(mode))

	for _, order := range orders {
		order.AttachLines(lines[order.ID])
		order.AttachTags(tags[order.ID])
	}
	return nil
}

func rollbackReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrContactNotFound):
		return "contact_not_found"
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	default:
		return "storage_error"
	}
}

// normalizeTagNames trims and dedupes while preserving caller order.
func normalizeTagNames(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, domain.ErrInvalidTag
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out, nil
}
