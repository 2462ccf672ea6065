package router

import (
	"net/http"
	"strings"

	"comics-store/internal/handler"
	"comics-store/internal/middleware"

	"github.com/rs/zerolog"
)

// adminPrefixes lists paths requiring the admin API key.
var adminPrefixes = []string{
	"/api/orders",
	"/api/analytics",
	"/api/tickets/verify",
}

// Deps collects the handlers and cross-cutting pieces the router wires up.
type Deps struct {
	Products  *handler.ProductHandler
	Cart      *handler.CartHandler
	Orders    *handler.OrderHandler
	Payments  *handler.PaymentHandler
	Tickets   *handler.TicketHandler
	Analytics *handler.AnalyticsHandler

	Visitors          middleware.VisitorRecorder
	AdminAPIKey       string
	SessionCookieName string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(deps Deps, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Product handler function
	productRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		// Check if this is a request for a specific product ID
		if r.URL.Path != "/api/products" && r.URL.Path != "/api/products/" {
			deps.Products.GetByID(w, r)
			return
		}
		deps.Products.GetAll(w, r)
	}
	mux.HandleFunc("/api/products", productRouteHandler)
	mux.HandleFunc("/api/products/", productRouteHandler)

	// Cart handler function
	cartRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimSuffix(r.URL.Path, "/") {
		case "/api/cart":
			deps.Cart.Get(w, r)
		case "/api/cart/items":
			deps.Cart.AddItem(w, r)
		case "/api/cart/remove":
			deps.Cart.RemoveItem(w, r)
		case "/api/cart/increase":
			deps.Cart.IncreaseItem(w, r)
		case "/api/cart/decrease":
			deps.Cart.DecreaseItem(w, r)
		case "/api/cart/checkout":
			deps.Cart.Checkout(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}
	mux.HandleFunc("/api/cart", cartRouteHandler)
	mux.HandleFunc("/api/cart/", cartRouteHandler)

	// Order handler dispatches {id} and {id}/{action} internally
	mux.Handle("/api/orders/", deps.Orders)

	// Payment handler function
	paymentRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.TrimSuffix(r.URL.Path, "/") == "/api/payments/ipn":
			deps.Payments.Notification(w, r)
		case strings.HasSuffix(r.URL.Path, "/status"):
			deps.Payments.Status(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}
	mux.HandleFunc("/api/payments/", paymentRouteHandler)

	mux.HandleFunc("/api/tickets/verify/", deps.Tickets.Verify)

	mux.HandleFunc("/api/analytics/sales", deps.Analytics.Sales)
	mux.HandleFunc("/api/analytics/orders", deps.Analytics.Orders)
	mux.HandleFunc("/api/analytics/visitors", deps.Analytics.Visitors)

	// Apply middleware in order: Recovery -> Logging -> CORS -> AdminAuth ->
	// UserAuth -> Session -> Visitors
	var h http.Handler = mux
	h = middleware.Visitors(deps.Visitors, logger)(h)
	h = middleware.Session(deps.SessionCookieName)(h)
	h = middleware.UserAuth(logger)(h)
	h = middleware.AdminAuth(deps.AdminAPIKey, adminPrefixes, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
