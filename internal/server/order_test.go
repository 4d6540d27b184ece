package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/orderdesk/internal/execmode"
	orderdomain "github.com/smallbiznis/orderdesk/internal/order/domain"
)

type orderServiceStub struct {
	lastMode execmode.Mode
	created  orderdomain.CreateOrderRequest
	err      error
}

func (s *orderServiceStub) Create(ctx context.Context, req orderdomain.CreateOrderRequest) (orderdomain.OrderView, error) {
	s.lastMode = execmode.FromContext(ctx)
	s.created = req
	if s.err != nil {
		return orderdomain.OrderView{}, s.err
	}
	return orderdomain.OrderView{
		ID:          1,
		Name:        req.Name,
		ContactID:   req.ContactID,
		AmountTotal: 2.75,
		Lines:       []orderdomain.OrderLine{},
	}, nil
}

func (s *orderServiceStub) List(ctx context.Context) ([]orderdomain.OrderView, error) {
	s.lastMode = execmode.FromContext(ctx)
	if s.err != nil {
		return nil, s.err
	}
	return []orderdomain.OrderView{}, nil
}

func (s *orderServiceStub) Get(ctx context.Context, id snowflake.ID) (orderdomain.OrderView, error) {
	s.lastMode = execmode.FromContext(ctx)
	if s.err != nil {
		return orderdomain.OrderView{}, s.err
	}
	return orderdomain.OrderView{ID: id, Lines: []orderdomain.OrderLine{}}, nil
}

func setupOrderRoutes(t *testing.T, stub *orderServiceStub) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())

	s := &Server{engine: r, orderSvc: stub}
	s.registerAPIRoutes()
	return r
}

func TestCreateOrderRouteModes(t *testing.T) {
	stub := &orderServiceStub{}
	r := setupOrderRoutes(t, stub)

	body := `{"name":"SO001","contact_id":"42","order_lines":[{"product_id":"7","quantity":2,"price":1.25}],"tags":["priority"]}`

	for _, tc := range []struct {
		path string
		want execmode.Mode
	}{
		{path: "/sync/orders", want: execmode.Blocking},
		{path: "/async/orders", want: execmode.Suspending},
	} {
		req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("%s status = %d, want 201: %s", tc.path, w.Code, w.Body.String())
		}
		if stub.lastMode != tc.want {
			t.Fatalf("%s mode = %q, want %q", tc.path, stub.lastMode, tc.want)
		}
	}

	if stub.created.Name != "SO001" || len(stub.created.Lines) != 1 || len(stub.created.TagNames) != 1 {
		t.Fatalf("request not forwarded: %+v", stub.created)
	}
}

func TestCreateOrderRouteInvalidBody(t *testing.T) {
	stub := &orderServiceStub{}
	r := setupOrderRoutes(t, stub)

	req := httptest.NewRequest(http.MethodPost, "/sync/orders", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}

	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Type != "validation_error" {
		t.Fatalf("type = %q, want validation_error", resp.Error.Type)
	}
}

func TestCreateOrderRouteReferentialFailure(t *testing.T) {
	stub := &orderServiceStub{err: orderdomain.ErrContactNotFound}
	r := setupOrderRoutes(t, stub)

	body := `{"name":"SO001","contact_id":"42","order_lines":[{"product_id":"7","quantity":1,"price":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/sync/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", w.Code, w.Body.String())
	}
}

func TestGetOrderRouteInvalidID(t *testing.T) {
	stub := &orderServiceStub{}
	r := setupOrderRoutes(t, stub)

	req := httptest.NewRequest(http.MethodGet, "/sync/orders/not-a-number", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}
