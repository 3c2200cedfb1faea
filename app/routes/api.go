// Package routes registers the HTTP surface: the public storefront API,
// the authenticated shopper routes, and the admin routes guarded by role.
package routes

import (
	"time"

	"github.com/sridharani/designhaven/app/controllers"
	appgraphql "github.com/sridharani/designhaven/app/graphql"
	"github.com/sridharani/designhaven/app/services"
	"github.com/sridharani/designhaven/internal/push"
	"github.com/sridharani/designhaven/internal/store"
	"github.com/sridharani/designhaven/pkg/ctx"
	"github.com/sridharani/designhaven/pkg/logger"
	"github.com/sridharani/designhaven/pkg/metrics"
	"github.com/sridharani/designhaven/pkg/middleware"
	"github.com/sridharani/designhaven/pkg/rbac"
	"github.com/sridharani/designhaven/pkg/router"
)

// Deps carries everything the routes need.
type Deps struct {
	Store       *store.Store
	Catalog     *services.CatalogService
	Cart        *services.CartService
	Orders      *services.OrderService
	Auth        *services.AuthService
	Reviews     *services.ReviewService
	Banner      *services.BannerService
	Broadcaster *push.Broadcaster
}

func RegisterAPI(r *router.Router, d Deps) {
	catalogController := controllers.NewCatalogController(d.Catalog)
	cartController := controllers.NewCartController(d.Cart)
	orderController := controllers.NewOrderController(d.Orders)
	authController := controllers.NewAuthController(d.Auth)
	reviewController := controllers.NewReviewController(d.Reviews)
	bannerController := controllers.NewBannerController(d.Banner)
	paymentController := controllers.NewPaymentController(d.Orders)
	uploadController := controllers.NewUploadController()
	storeController := controllers.NewStoreController(d.Store)
	liveController := controllers.NewLiveController(d.Broadcaster)

	api := r.Group("/api")

	// Public storefront.
	api.Get("/categories", "categories.index", ctx.Wrap(catalogController.ListCategories))
	api.Get("/products", "products.index", ctx.Wrap(catalogController.ListProducts))
	api.Get("/products/{id}", "products.show", ctx.Wrap(catalogController.ShowProduct))
	api.Get("/products/{id}/reviews", "reviews.index", ctx.Wrap(reviewController.List))
	api.Post("/products/{id}/reviews", "reviews.store", ctx.Wrap(reviewController.Create))
	api.Get("/banner", "banner.show", ctx.Wrap(bannerController.Show))

	// Cart and checkout follow the single-shopper session model.
	api.Get("/cart", "cart.show", ctx.Wrap(cartController.Show))
	api.Post("/cart", "cart.add", ctx.Wrap(cartController.Add))
	api.Patch("/cart/{id}", "cart.quantity", ctx.Wrap(cartController.ChangeQuantity))
	api.Delete("/cart/{id}", "cart.remove", ctx.Wrap(cartController.Remove))
	api.Delete("/cart", "cart.clear", ctx.Wrap(cartController.Clear))
	api.Post("/orders", "orders.place", ctx.Wrap(orderController.Place))
	api.Get("/orders/{id}", "orders.show", ctx.Wrap(orderController.Show))
	api.Get("/orders/{id}/payment", "orders.payment", ctx.Wrap(paymentController.Intent))
	api.Get("/orders/{id}/qr", "orders.qr", ctx.Wrap(paymentController.QR))
	api.Post("/orders/{id}/paid", "orders.paid", ctx.Wrap(orderController.MarkPaid))

	// Session. Credential endpoints are rate limited per client IP.
	session := api.Group("", middleware.RateLimit(20, time.Minute))
	session.Post("/register", "auth.register", ctx.Wrap(authController.Register))
	session.Post("/login", "auth.login", ctx.Wrap(authController.Login))
	session.Post("/refresh", "auth.refresh", ctx.Wrap(authController.Refresh))
	api.Post("/logout", "auth.logout", ctx.Wrap(authController.Logout))
	api.Get("/profile", "auth.profile", ctx.Wrap(authController.Profile))

	// Live updates and sync state.
	api.Get("/events", "live.events", ctx.Wrap(liveController.Events))
	api.Get("/ws", "live.ws", ctx.Wrap(liveController.Socket))
	api.Get("/sync", "store.status", ctx.Wrap(storeController.Status))
	api.Post("/sync", "store.sync", ctx.Wrap(storeController.Sync))

	// GraphQL read surface.
	schema, err := appgraphql.NewSchema(d.Catalog, d.Reviews, d.Banner)
	if err != nil {
		logger.Error("graphql schema build failed", "error", err)
	} else {
		api.Post("/graphql", "graphql", ctx.Wrap(appgraphql.Handler(schema)))
	}

	// Authenticated shopper routes.
	account := api.Group("", middleware.AuthMiddleware)
	account.Get("/orders", "orders.mine", ctx.Wrap(orderController.Mine))
	account.Put("/address", "address.save", ctx.Wrap(authController.SaveAddress))

	// Admin routes: owner only.
	admin := api.Group("/admin", middleware.AuthMiddleware, rbac.HasRole(services.RoleAdmin))
	admin.Post("/categories", "admin.categories.store", ctx.Wrap(catalogController.CreateCategory))
	admin.Put("/categories/{id}", "admin.categories.update", ctx.Wrap(catalogController.UpdateCategory))
	admin.Delete("/categories/{id}", "admin.categories.delete", ctx.Wrap(catalogController.DeleteCategory))
	admin.Post("/products", "admin.products.store", ctx.Wrap(catalogController.CreateProduct))
	admin.Put("/products/{id}", "admin.products.update", ctx.Wrap(catalogController.UpdateProduct))
	admin.Delete("/products/{id}", "admin.products.delete", ctx.Wrap(catalogController.DeleteProduct))
	admin.Get("/orders", "admin.orders.index", ctx.Wrap(orderController.List))
	admin.Patch("/orders/{id}/status", "admin.orders.status", ctx.Wrap(orderController.UpdateStatus))
	admin.Put("/banner", "admin.banner.update", ctx.Wrap(bannerController.Set))
	admin.Delete("/banner", "admin.banner.delete", ctx.Wrap(bannerController.Clear))
	admin.Post("/uploads", "admin.uploads.store", ctx.Wrap(uploadController.Image))

	r.Get("/metrics", "metrics", metrics.Handler())
}
