package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"boutique/internal/auth"
	"boutique/internal/httpserver/handlers"
	"boutique/internal/metrics"
	"boutique/internal/models"
	"boutique/internal/store"
)

func NewRouter(users *store.UserStore, products *store.ProductStore, orders *store.OrderStore, lg *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)
	r.Use(metrics.Middleware)

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", handlers.Register(users, lg))
		api.Post("/auth/login", handlers.Login(users, lg))

		api.Get("/produits", handlers.ListProducts(products, lg))
		api.Get("/produits/search", handlers.SearchProducts(products, lg))
		api.Get("/produits/{id}", handlers.GetProduct(products, lg))

		api.Get("/commandes/{id}/lignes", handlers.ListOrderLines(orders, lg))

		api.Group(func(protected chi.Router) {
			protected.Use(auth.Authenticate(users))
			protected.Get("/auth/me", handlers.Me(lg))
			protected.Get("/commandes", handlers.ListOrders(orders, lg))
			protected.Get("/commandes/{id}", handlers.GetOrder(orders, lg))

			protected.Group(func(client chi.Router) {
				client.Use(auth.RequireRole(models.RoleClient))
				client.Post("/commandes", handlers.CreateOrder(orders, lg))
			})

			protected.Group(func(admin chi.Router) {
				admin.Use(auth.RequireRole(models.RoleAdmin))
				admin.Post("/produits", handlers.CreateProduct(products, lg))
				admin.Put("/produits/{id}", handlers.UpdateProduct(products, lg))
				admin.Patch("/produits/{id}", handlers.UpdateProduct(products, lg))
				admin.Delete("/produits/{id}", handlers.DeleteProduct(products, lg))
				admin.Patch("/commandes/{id}", handlers.ChangeOrderStatus(orders, lg))
			})
		})
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
