package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderdesk/internal/contact/domain"
	"github.com/smallbiznis/orderdesk/internal/execmode"
	"github.com/smallbiznis/orderdesk/internal/observability/metrics"
	"github.com/smallbiznis/orderdesk/internal/store"
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
		log:     p.Log.Named("contact.service"),
		genID:   p.GenID,
		stores:  p.Stores,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateContactRequest) (domain.Contact, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Contact{}, domain.ErrInvalidName
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Contact{}, domain.ErrInvalidEmail
	}

	now := time.Now().UTC()
	contact := domain.Contact{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Metadata != nil {
		contact.Metadata = datatypes.JSONMap(req.Metadata)
	}

	mode := execmode.FromContext(ctx)
	err := store.RunInTx(ctx, s.stores.For(mode), func(tx store.Tx) error {
		return tx.InsertContact(ctx, &contact)
	})
	if err != nil {
		return domain.Contact{}, err
	}

	s.metrics.RecordEntityCreated(ctx, "contact", string(mode))
	return contact, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Contact, error) {
	var contacts []domain.Contact
	mode := execmode.FromContext(ctx)
	err := store.RunInTx(ctx, s.stores.For(mode), func(tx store.Tx) error {
		var err error
		contacts, err = tx.ListContacts(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return contacts, nil
}
