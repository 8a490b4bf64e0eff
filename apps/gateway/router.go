package main

import (
	"net/http"

	"go-storefront/apps/address"
	"go-storefront/apps/admin"
	"go-storefront/apps/cart"
	"go-storefront/apps/gateway/middleware"
	"go-storefront/apps/order"
	"go-storefront/apps/product"
	"go-storefront/apps/user"
	"go-storefront/pkg/auth"
	"go-storefront/pkg/config"
	"go-storefront/pkg/events"
	"go-storefront/pkg/jwt"
	"go-storefront/pkg/ratelimit"
	"go-storefront/pkg/response"
	"go-storefront/pkg/search"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// deps is everything the routes are built from.
type deps struct {
	service   string
	db        *gorm.DB
	rdb       *redis.Client
	tokens    *jwt.Manager
	index     search.Index // nil: SQL search
	events    events.Publisher
	media     config.MediaConfig
	rateLimit bool
}

type services struct {
	users   *user.Service
	catalog *product.Service
	orders  *order.Service
	address *address.Service
	carts   *cart.Service
	admin   *admin.Service
}

func newServices(d deps) services {
	orders := order.NewService(d.db, d.events)
	return services{
		users:   user.NewService(d.db),
		catalog: product.NewService(d.db, d.index, product.NewImageStore(d.media.Root, d.media.URLPrefix)),
		orders:  orders,
		address: address.NewService(d.db),
		carts:   cart.NewService(cart.NewStore(d.rdb), d.db, orders),
		admin:   admin.NewService(d.db),
	}
}

func newRouter(d deps, svc services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), otelgin.Middleware(d.service))
	r.Static(d.media.URLPrefix, d.media.Root)
	r.GET("/healthz", health(d))

	limit := func(resource string) gin.HandlerFunc {
		if !d.rateLimit {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimit(resource)
	}
	signedIn := middleware.Require(auth.Authenticated)
	catalogPolicy := middleware.Require(auth.ReadOnlyOrStaff)
	staffOnly := middleware.Require(auth.StaffOnly)

	api := r.Group("/api")
	api.Use(middleware.Identify(d.tokens, svc.users))

	users := user.NewHandler(svc.users)
	{
		api.POST("/auth/register", limit(ratelimit.ResRegister), users.Register)
		api.GET("/auth/me", signedIn, users.Me)
		api.GET("/profile", signedIn, users.GetProfile)
		api.PUT("/profile", signedIn, users.UpdateProfile)
		api.PATCH("/profile", signedIn, users.UpdateProfile)
	}

	catalog := product.NewHandler(svc.catalog)
	{
		g := api.Group("/categories", catalogPolicy)
		g.GET("", catalog.ListCategories)
		g.POST("", catalog.CreateCategory)
		g.GET("/:slug", catalog.GetCategory)
		g.PUT("/:slug", catalog.UpdateCategory)
		g.PATCH("/:slug", catalog.UpdateCategory)
		g.DELETE("/:slug", catalog.DeleteCategory)
	}
	{
		g := api.Group("/products", catalogPolicy)
		g.GET("", catalog.ListProducts)
		g.POST("", catalog.CreateProduct)
		g.GET("/:slug", catalog.GetProduct)
		g.PUT("/:slug", catalog.UpdateProduct)
		g.PATCH("/:slug", catalog.UpdateProduct)
		g.DELETE("/:slug", catalog.DeleteProduct)
		g.POST("/:slug/upload_image", catalog.UploadImage)
	}

	orders := order.NewHandler(svc.orders)
	{
		g := api.Group("/orders", signedIn)
		g.GET("", orders.List)
		g.POST("", limit(ratelimit.ResOrderCreate), orders.Create)
		g.GET("/:id", orders.Get)
		g.POST("/:id/confirm_payment", orders.ConfirmPayment)
		g.POST("/:id/update_status", orders.UpdateStatus)
	}

	addresses := address.NewHandler(svc.address)
	{
		g := api.Group("/addresses", signedIn)
		g.GET("", addresses.List)
		g.POST("", addresses.Create)
		g.GET("/:id", addresses.Get)
		g.PUT("/:id", addresses.Update)
		g.PATCH("/:id", addresses.Update)
		g.DELETE("/:id", addresses.Delete)
		g.POST("/:id/set_default", addresses.SetDefault)
	}

	carts := cart.NewHandler(svc.carts)
	{
		g := api.Group("/cart", signedIn)
		g.GET("", carts.Get)
		g.DELETE("", carts.Clear)
		g.POST("/items", carts.AddItem)
		g.PUT("/items/:product_id", carts.SetItem)
		g.DELETE("/items/:product_id", carts.RemoveItem)
		g.POST("/checkout", limit(ratelimit.ResOrderCreate), carts.Checkout)
	}

	dashboard := admin.NewHandler(svc.admin)
	{
		g := api.Group("/admin", staffOnly)
		g.GET("/stats", dashboard.Stats)
		g.GET("/users", dashboard.ListUsers)
	}
	return r
}

// health answers the Consul check: the database must be reachable.
func health(d deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := d.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			response.Error(c, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		status := gin.H{"status": "ok", "database": "up"}
		if d.rdb != nil {
			if err := d.rdb.Ping(c.Request.Context()).Err(); err != nil {
				status["redis"] = "down"
			} else {
				status["redis"] = "up"
			}
		}
		response.Success(c, status)
	}
}
