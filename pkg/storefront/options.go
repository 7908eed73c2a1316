package storefront

import (
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type options struct {
	repository Repository
	mediaStore MediaStore
	mailer     Mailer
	observer   Observer
	logger     *slog.Logger
	now        func() time.Time
	bcryptCost int
	contact    ContactConfig
	routes     []StaticRoute
}

// Option represents a functional option for configuring a service
type Option func(*options)

func buildOptions(opts []Option) options {
	o := options{
		observer:   NewNoopObserver(),
		logger:     slog.Default(),
		now:        func() time.Time { return time.Now().UTC() },
		bcryptCost: bcrypt.DefaultCost,
		routes:     DefaultStaticRoutes(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithRepository sets the persistent store
func WithRepository(repo Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithMediaStore sets the image store
func WithMediaStore(store MediaStore) Option {
	return func(o *options) {
		o.mediaStore = store
	}
}

// WithMailer sets the outbound mail transport
func WithMailer(mailer Mailer) Option {
	return func(o *options) {
		o.mailer = mailer
	}
}

// WithObserver sets the observer for degraded outcomes
func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithBcryptCost sets the password hashing cost
func WithBcryptCost(cost int) Option {
	return func(o *options) {
		o.bcryptCost = cost
	}
}

// WithContactConfig sets the contact form addressing
func WithContactConfig(cfg ContactConfig) Option {
	return func(o *options) {
		o.contact = cfg
	}
}

// WithStaticRoutes replaces the static sitemap routes
func WithStaticRoutes(routes ...StaticRoute) Option {
	return func(o *options) {
		o.routes = routes
	}
}
