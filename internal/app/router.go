package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/backend-salon/internal/analytics"
	"github.com/noah-isme/backend-salon/internal/appointment"
	"github.com/noah-isme/backend-salon/internal/audit"
	"github.com/noah-isme/backend-salon/internal/auth"
	"github.com/noah-isme/backend-salon/internal/branch"
	"github.com/noah-isme/backend-salon/internal/cart"
	"github.com/noah-isme/backend-salon/internal/catalog"
	"github.com/noah-isme/backend-salon/internal/checkout"
	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/coupon"
	"github.com/noah-isme/backend-salon/internal/customer"
	"github.com/noah-isme/backend-salon/internal/expense"
	"github.com/noah-isme/backend-salon/internal/health"
	"github.com/noah-isme/backend-salon/internal/inventory"
	"github.com/noah-isme/backend-salon/internal/notify"
	"github.com/noah-isme/backend-salon/internal/obs"
	"github.com/noah-isme/backend-salon/internal/pricing"
	"github.com/noah-isme/backend-salon/internal/sales"
	"github.com/noah-isme/backend-salon/internal/security"
	"github.com/noah-isme/backend-salon/internal/settings"
	"github.com/noah-isme/backend-salon/internal/store"
)

// AccessCookie carries the access token for browser sessions.
const AccessCookie = "salon_access"

var (
	adminOnly  = auth.RequireRole(string(store.StaffRoleAdmin))
	management = auth.RequireRole(string(store.StaffRoleAdmin), string(store.StaffRoleManager))
)

// RouterOptions are the HTTP-only knobs of NewRouter.
type RouterOptions struct {
	Health *health.Handler
	// APILimit is applied to every /api route when set.
	APILimit func(http.Handler) http.Handler
	Metrics  *obs.HTTPMetrics
}

// NewRouter mounts every endpoint under /api/v1.
func NewRouter(d *Dependencies, s *Services, opts RouterOptions) http.Handler {
	cfg := d.Config
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(obs.TracingMiddleware)
	r.Use(obs.HTTPObs{Metrics: opts.Metrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.CORS(cfg.CORSAllowedOrigins))
	r.Use(security.Headers{HSTS: cfg.IsProduction()}.Middleware)
	r.Use(security.BodyLimit(cfg.BodyLimitBytes))

	if opts.Health != nil {
		r.Get("/health/live", opts.Health.Live)
		r.Get("/health/ready", opts.Health.Ready)
	}
	if cfg.Obs.EnablePrometheus {
		r.Handle("/metrics", promhttp.Handler())
	}

	authMW := auth.Middleware{Service: s.Auth, AccessCookie: AccessCookie}
	authH := &auth.Handler{
		Service:          s.Auth,
		Attempts:         s.Logins,
		AccessCookieName: AccessCookie,
		CookieSecure:     cfg.IsProduction(),
		Logger:           &d.Logger,
	}
	idem := common.Idem{R: d.Redis, TTL: cfg.IdempotencyTTL}
	branches := branch.NewResolver(branch.HeaderName, cfg.DefaultBranchID)
	rec := audit.HTTPRecorder{
		Service: s.Audit,
		OnError: func(err error) { d.Logger.Warn().Err(err).Msg("audit record failed") },
	}

	r.Route("/api/v1", func(v chi.Router) {
		if opts.APILimit != nil {
			v.Use(opts.APILimit)
		}
		v.Use(security.CSRF{AccessCookie: AccessCookie, Secure: cfg.IsProduction()}.Middleware)

		v.Post("/auth/login", authH.Login)
		v.Post("/auth/logout", authH.Logout)

		v.Group(func(p chi.Router) {
			p.Use(authMW.RequireAuth)
			p.Use(branches.Middleware)

			p.Get("/auth/me", authH.Me)

			mountStaff(p, authH, rec)
			mountBranches(p, &branch.Handler{Svc: s.Branches}, rec)
			mountAudit(p, audit.Handler{Store: d.Queries})
			mountPricing(p)
			mountCatalog(p, &catalog.Handler{Svc: s.Catalog})
			mountCoupons(p, &coupon.Handler{Svc: s.Coupons}, rec)
			mountCustomers(p, &customer.Handler{Svc: s.Customers}, rec)
			mountInventory(p, &inventory.Handler{Svc: s.Inventory})
			mountAppointments(p, &appointment.Handler{Svc: s.Appointments})
			mountExpenses(p, &expense.Handler{Svc: s.Expenses}, rec)
			mountSettings(p, &settings.Handler{Svc: s.Settings}, rec)
			mountCarts(p, &cart.Handler{Svc: s.Carts}, &checkout.Handler{Svc: s.Checkout}, idem)
			mountSales(p, &sales.Handler{Svc: s.Sales}, rec)
			mountReports(p, &analytics.Handler{Svc: s.Analytics})
			mountNotifications(p, &notify.InboxHandler{Inbox: s.Inbox}, &notify.AdminHandler{Endpoints: s.Endpoints}, rec)
		})
	})
	return r
}

func mountStaff(r chi.Router, h *auth.Handler, rec audit.HTTPRecorder) {
	r.Route("/staff", func(c chi.Router) {
		c.Use(adminOnly)
		c.Use(rec.Middleware(audit.HTTPConfig{ResourceType: "staff", ResourceIDParam: "id"}))
		c.Get("/", h.ListStaff)
		c.Post("/", h.CreateStaff)
		c.Put("/{id}", h.UpdateStaff)
		c.Delete("/{id}", h.DeactivateStaff)
	})
}

func mountBranches(r chi.Router, h *branch.Handler, rec audit.HTTPRecorder) {
	r.Route("/branches", func(c chi.Router) {
		c.Use(adminOnly)
		c.Use(rec.Middleware(audit.HTTPConfig{ResourceType: "branch", ResourceIDParam: "id"}))
		c.Get("/", h.List)
		c.Post("/", h.Create)
		c.Get("/{id}", h.Get)
		c.Put("/{id}", h.Update)
		c.Delete("/{id}", h.Delete)
	})
}

func mountAudit(r chi.Router, h audit.Handler) {
	r.With(adminOnly).Get("/audit-logs", h.List)
}

func mountPricing(r chi.Router) {
	h := pricing.Handler{}
	r.Get("/tax/rates", h.Rates)
	r.Post("/tax/compute", h.Compute)
	r.Post("/tax/order-totals", h.OrderTotals)
}

func mountCatalog(r chi.Router, h *catalog.Handler) {
	r.Route("/services", func(c chi.Router) {
		c.Get("/", h.List)
		c.Get("/{id}", h.Get)
		c.With(management).Post("/", h.Create)
		c.With(management).Put("/{id}", h.Update)
		c.With(management).Delete("/{id}", h.Deactivate)
	})
}

func mountCoupons(r chi.Router, h *coupon.Handler, rec audit.HTTPRecorder) {
	audited := rec.Middleware(audit.HTTPConfig{ResourceType: "coupon", ResourceIDParam: "code"})
	r.Route("/coupons", func(c chi.Router) {
		c.Get("/", h.List)
		c.Post("/validate", h.Validate)
		c.Get("/{code}", h.Get)
		c.With(management, audited).Post("/", h.Create)
		c.With(management, audited).Put("/{code}", h.Update)
		c.With(management, audited).Delete("/{code}", h.Deactivate)
	})
}

func mountCustomers(r chi.Router, h *customer.Handler, rec audit.HTTPRecorder) {
	r.Route("/customers", func(c chi.Router) {
		c.Get("/", h.List)
		c.Post("/", h.Create)
		c.Get("/{id}", h.Get)
		c.Put("/{id}", h.Update)
		c.With(management, rec.Middleware(audit.HTTPConfig{Action: "customer.delete", ResourceType: "customer", ResourceIDParam: "id"})).
			Delete("/{id}", h.Delete)
		c.Get("/{id}/activities", h.Activities)
	})
}

func mountInventory(r chi.Router, h *inventory.Handler) {
	r.Route("/inventory", func(c chi.Router) {
		c.Get("/", h.List)
		c.Get("/{id}", h.Get)
		c.With(management).Post("/", h.Create)
		c.With(management).Put("/{id}", h.Update)
		c.With(management).Post("/{id}/adjust", h.Adjust)
	})
}

func mountAppointments(r chi.Router, h *appointment.Handler) {
	r.Route("/appointments", func(c chi.Router) {
		c.Get("/", h.List)
		c.Post("/", h.Book)
		c.Get("/upcoming", h.Upcoming)
		c.Patch("/{id}/status", h.UpdateStatus)
	})
}

func mountExpenses(r chi.Router, h *expense.Handler, rec audit.HTTPRecorder) {
	audited := rec.Middleware(audit.HTTPConfig{ResourceType: "expense", ResourceIDParam: "id"})
	r.Route("/expenses", func(c chi.Router) {
		c.Use(management)
		c.Get("/", h.List)
		c.Get("/{id}", h.Get)
		c.With(audited).Post("/", h.Create)
		c.With(audited).Put("/{id}", h.Update)
		c.With(audited).Delete("/{id}", h.Delete)
	})
}

func mountSettings(r chi.Router, h *settings.Handler, rec audit.HTTPRecorder) {
	r.Get("/settings", h.Get)
	r.With(adminOnly, rec.Middleware(audit.HTTPConfig{Action: "settings.update", ResourceType: "settings"})).Put("/settings", h.Update)
}

func mountCarts(r chi.Router, h *cart.Handler, finalize *checkout.Handler, idem common.Idem) {
	r.Route("/carts", func(c chi.Router) {
		c.Post("/", h.Create)
		c.Route("/{id}", func(c chi.Router) {
			c.Get("/", h.Get)
			c.Delete("/", h.Delete)
			c.Get("/totals", h.Totals)
			c.Post("/items", h.AddItem)
			c.Patch("/items", h.SetQuantity)
			c.Delete("/items", h.RemoveItem)
			c.Post("/coupon", h.ApplyCoupon)
			c.Delete("/coupon", h.RemoveCoupon)
			c.Put("/discount", h.SetDiscount)
			c.Put("/customer", h.SetCustomer)
			c.Put("/payment-method", h.SetPaymentMethod)
			c.With(idem.Middleware).Post("/finalize", finalize.Finalize)
		})
	})
}

func mountSales(r chi.Router, h *sales.Handler, rec audit.HTTPRecorder) {
	cancel := rec.Middleware(audit.HTTPConfig{Action: "sale.cancel", ResourceType: "sale", ResourceIDParam: "id"})
	r.Route("/sales", func(c chi.Router) {
		c.Get("/", h.List)
		c.Get("/{id}", h.Get)
		c.Get("/{id}/receipt", h.Receipt)
		c.With(management, cancel).Post("/{id}/cancel", h.Cancel)
	})
}

func mountReports(r chi.Router, h *analytics.Handler) {
	r.Route("/reports", func(c chi.Router) {
		c.Use(management)
		c.Get("/overview", h.Overview)
		c.Get("/sales", h.Sales)
		c.Get("/customers", h.Customers)
		c.Get("/services", h.Services)
		c.Get("/coupons", h.Coupons)
		c.Get("/export", h.Export)
	})
}

func mountNotifications(r chi.Router, inbox *notify.InboxHandler, admin *notify.AdminHandler, rec audit.HTTPRecorder) {
	r.Route("/notifications", func(c chi.Router) {
		c.Get("/", inbox.List)
		c.Post("/{id}/read", inbox.MarkRead)
		c.Delete("/{id}", inbox.Delete)
	})
	r.Route("/webhooks", func(c chi.Router) {
		c.Use(adminOnly)
		c.Use(rec.Middleware(audit.HTTPConfig{ResourceType: "webhook", ResourceIDParam: "id"}))
		c.Get("/", admin.ListEndpoints)
		c.Post("/", admin.CreateEndpoint)
		c.Get("/{id}", admin.GetEndpoint)
		c.Put("/{id}", admin.UpdateEndpoint)
		c.Delete("/{id}", admin.DeleteEndpoint)
	})
}
