package app

import (
	"fmt"
	"time"

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
	"github.com/noah-isme/backend-salon/internal/events"
	"github.com/noah-isme/backend-salon/internal/expense"
	"github.com/noah-isme/backend-salon/internal/inventory"
	"github.com/noah-isme/backend-salon/internal/lock"
	"github.com/noah-isme/backend-salon/internal/notify"
	"github.com/noah-isme/backend-salon/internal/ratelimit"
	"github.com/noah-isme/backend-salon/internal/resilience"
	"github.com/noah-isme/backend-salon/internal/sales"
	"github.com/noah-isme/backend-salon/internal/settings"
	"github.com/noah-isme/backend-salon/internal/tasks"
)

// webhookGuardTTL is how long an acknowledged delivery is remembered.
const webhookGuardTTL = 72 * time.Hour

// Services is the wired domain layer.
type Services struct {
	Auth         *auth.Service
	Logins       ratelimit.Policy
	Branches     *branch.Service
	Audit        *audit.Service
	Catalog      *catalog.Service
	Customers    *customer.Service
	Coupons      *coupon.Service
	Inventory    *inventory.Service
	Appointments *appointment.Service
	Settings     *settings.Service
	Expenses     *expense.Service
	Carts        *cart.Service
	Checkout     *checkout.Service
	Sales        *sales.Service
	Analytics    *analytics.Service
	Inbox        *notify.Inbox
	Endpoints    *notify.Endpoints
	Dispatcher   *notify.Dispatcher
	Events       *events.Bus
}

// NewServices builds every service on top of d.
func NewServices(d *Dependencies) (*Services, error) {
	cfg := d.Config
	logger := d.Logger
	q := d.Queries
	queue := tasks.Client{Q: d.Tasks, MaxRetry: cfg.WebhookMaxRetry}

	authSvc, err := auth.NewService(auth.Config{
		Queries:        q,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		Issuer:         cfg.JWTIssuer,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	breakers := &resilience.Registry{Logger: &logger}
	dispatcher := &notify.Dispatcher{
		Q:        q,
		Tasks:    queue,
		HTTP:     resilience.HTTPClient{Client: notify.HTTPClient(cfg.WebhookRequestTimeout), Breakers: breakers},
		Enabled:  cfg.WebhookDeliveryEnabled,
		Guard:    notify.RedisGuard{R: d.Redis},
		GuardTTL: webhookGuardTTL,
		Logger:   &logger,
	}
	mailLogger := logger.With().Str("component", "mail").Logger()
	bus := &events.Bus{
		Store:     q,
		Scheduler: dispatcher,
		Notifiers: []events.Notifier{
			notify.InboxNotifier{Q: q, Pub: d.Redis},
			notify.EmailNotifier{
				Mail:    common.LogEmailSender{Logger: &mailLogger},
				Enabled: cfg.NotifyEmailEnabled,
				From:    cfg.NotifyEmailFrom,
			},
		},
	}

	catalogSvc := &catalog.Service{Q: q, Cache: catalog.NewCache(d.Redis, cfg.CatalogCacheTTL), Logger: &logger}
	customerSvc := &customer.Service{Q: q, Events: bus, Logger: &logger}
	couponSvc := &coupon.Service{Q: q, Events: bus}
	cartSvc := &cart.Service{R: d.Redis, TTL: cfg.CartTTL, Catalog: catalogSvc, Coupons: couponSvc, Customers: customerSvc}

	analyticsSvc := &analytics.Service{Q: q, R: d.Redis, TTL: cfg.AnalyticsCacheTTL, Logger: &logger}

	invoices, err := checkout.NewSnowflakeInvoices(cfg.InvoiceNodeID)
	if err != nil {
		return nil, fmt.Errorf("invoice numbers: %w", err)
	}

	return &Services{
		Auth: authSvc,
		Logins: ratelimit.Policy{
			Limiter: ratelimit.Limiter{Client: d.Redis, Prefix: "rl:login:"},
			Window:  cfg.LoginRateWindow,
			Max:     cfg.LoginRateMax,
		},
		Branches:     &branch.Service{Q: q},
		Audit:        &audit.Service{Store: q, Enabled: cfg.AuditEnabled},
		Catalog:      catalogSvc,
		Customers:    customerSvc,
		Coupons:      couponSvc,
		Inventory:    &inventory.Service{Q: q, Events: bus, Logger: &logger},
		Appointments: &appointment.Service{Q: q, Customers: customerSvc, Catalog: catalogSvc, Events: bus, Logger: &logger},
		Settings:     &settings.Service{Q: q},
		Expenses:     &expense.Service{Q: q, Reports: analyticsSvc, Logger: &logger},
		Carts:        cartSvc,
		Checkout: &checkout.Service{
			Carts:    cartSvc,
			Coupons:  couponSvc,
			Q:        q,
			Tx:       checkout.PgxTx{Pool: d.DB, Q: q},
			Locker:   lock.Locker{R: d.Redis, RetryBackoff: cfg.LockRetryBackoff},
			LockTTL:  cfg.LockTTL,
			Invoices: invoices,
			Events:   bus,
			Receipts: queue,
			Logger:   &logger,
		},
		Sales:      &sales.Service{Q: q, Events: bus, Logger: &logger},
		Analytics:  analyticsSvc,
		Inbox:      &notify.Inbox{Q: q},
		Endpoints:  &notify.Endpoints{Q: q},
		Dispatcher: dispatcher,
		Events:     bus,
	}, nil
}
