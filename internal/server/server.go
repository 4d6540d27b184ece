package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/orderdesk/internal/config"
	"github.com/smallbiznis/orderdesk/internal/contact"
	contactdomain "github.com/smallbiznis/orderdesk/internal/contact/domain"
	"github.com/smallbiznis/orderdesk/internal/execmode"
	"github.com/smallbiznis/orderdesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/orderdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/orderdesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/orderdesk/internal/observability/tracing"
	"github.com/smallbiznis/orderdesk/internal/order"
	orderdomain "github.com/smallbiznis/orderdesk/internal/order/domain"
	"github.com/smallbiznis/orderdesk/internal/product"
	productdomain "github.com/smallbiznis/orderdesk/internal/product/domain"
	"github.com/smallbiznis/orderdesk/internal/tag"
	tagdomain "github.com/smallbiznis/orderdesk/internal/tag/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	contact.Module,
	product.Module,
	tag.Module,
	order.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	contactSvc contactdomain.Service
	productSvc productdomain.Service
	tagSvc     tagdomain.Service
	orderSvc   orderdomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	ContactSvc contactdomain.Service
	ProductSvc productdomain.Service
	TagSvc     tagdomain.Service
	OrderSvc   orderdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		contactSvc: p.ContactSvc,
		productSvc: p.ProductSvc,
		tagSvc:     p.TagSvc,
		orderSvc:   p.OrderSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerAPIRoutes mounts the same handler set twice: /sync runs on the
// blocking engine, /async on the suspending one. Handlers and services never
// branch on the mode; it travels in the request context.
func (s *Server) registerAPIRoutes() {
	for _, mount := range []struct {
		prefix string
		mode   execmode.Mode
	}{
		{prefix: "/sync", mode: execmode.Blocking},
		{prefix: "/async", mode: execmode.Suspending},
	} {
		api := s.engine.Group(mount.prefix, ExecModeMiddleware(mount.mode))

		api.GET("/contacts", s.ListContacts)
		api.POST("/contacts", s.CreateContact)

		api.GET("/products", s.ListProducts)
		api.POST("/products", s.CreateProduct)

		api.GET("/tags", s.ListTags)
		api.POST("/tags", s.CreateTag)

		api.GET("/orders", s.ListOrders)
		api.POST("/orders", s.CreateOrder)
		api.GET("/orders/:id", s.GetOrderByID)
	}
}

// ExecModeMiddleware stamps the execution mode for everything below the
// route group.
func ExecModeMiddleware(mode execmode.Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := execmode.WithMode(c.Request.Context(), mode)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
