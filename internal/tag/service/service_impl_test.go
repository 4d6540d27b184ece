package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/orderdesk/internal/store"
	"github.com/smallbiznis/orderdesk/internal/tag/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTagService(t *testing.T) domain.Service {
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

	if err := db.AutoMigrate(&domain.Tag{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	return New(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Stores: store.Set{
			Blocking:   store.NewGormStore(db, nil),
			Suspending: store.NewPgxStore(nil, nil),
		},
	})
}

func TestCreateTagResolvesByName(t *testing.T) {
	svc := setupTagService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, domain.CreateTagRequest{Name: "priority"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := svc.Create(ctx, domain.CreateTagRequest{Name: " priority "})
	if err != nil {
		t.Fatalf("Create again: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("ids differ: %d vs %d", first.ID, second.ID)
	}

	tags, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("tags = %d, want 1", len(tags))
	}
}

func TestCreateTagRejectsBlankName(t *testing.T) {
	svc := setupTagService(t)

	if _, err := svc.Create(context.Background(), domain.CreateTagRequest{Name: "   "}); !errors.Is(err, domain.ErrInvalidName) {
		t.Fatalf("err = %v, want %v", err, domain.ErrInvalidName)
	}
}
