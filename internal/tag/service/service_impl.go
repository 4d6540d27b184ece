package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderdesk/internal/execmode"
	"github.com/smallbiznis/orderdesk/internal/observability/metrics"
	"github.com/smallbiznis/orderdesk/internal/store"
	"github.com/smallbiznis/orderdesk/internal/tag/domain"
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
		log:     p.Log.Named("tag.service"),
		genID:   p.GenID,
		stores:  p.Stores,
		metrics: p.Metrics,
	}
}

// Create resolves the tag by name. The generated id is only used when no row
// with that name exists yet; otherwise the stored row wins.
func (s *Service) Create(ctx context.Context, req domain.CreateTagRequest) (domain.Tag, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Tag{}, domain.ErrInvalidName
	}

	var tag domain.Tag
	mode := execmode.FromContext(ctx)
	err := store.RunInTx(ctx, s.stores.For(mode), func(tx store.Tx) error {
		var err error
		tag, err = tx.EnsureTag(ctx, s.genID.Generate(), name)
		return err
	})
	if err != nil {
		return domain.Tag{}, err
	}

	s.metrics.RecordEntityCreated(ctx, "tag", string(mode))
	return tag, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Tag, error) {
	var tags []domain.Tag
	mode := execmode.FromContext(ctx)
	err := store.RunInTx(ctx, s.stores.For(mode), func(tx store.Tx) error {
		var err error
		tags, err = tx.ListTags(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}
