package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderdesk/internal/execmode"
	"github.com/smallbiznis/orderdesk/internal/observability/metrics"
	"github.com/smallbiznis/orderdesk/internal/product/domain"
	"github.com/smallbiznis/orderdesk/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
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
		log:     p.Log.Named("product.service"),
		genID:   p.GenID,
		stores:  p.Stores,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProductRequest) (domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Product{}, domain.ErrInvalidName
	}
	if req.Price < 0 {
		return domain.Product{}, domain.ErrInvalidPrice
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:        s.genID.Generate(),
		Name:      name,
		Price:     req.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mode := execmode.FromContext(ctx)
	err := store.RunInTx(ctx, s.stores.For(mode), func(tx store.Tx) error {
		return tx.InsertProduct(ctx, &product)
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.metrics.RecordEntityCreated(ctx, "product", string(mode))
	return product, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	mode := execmode.FromContext(ctx)
	err := store.RunInTx(ctx, s.stores.For(mode), func(tx store.Tx) error {
		var err error
		products, err = tx.ListProducts(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}
