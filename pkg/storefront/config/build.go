package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tendant/simple-storefront/pkg/storefront"
	"github.com/tendant/simple-storefront/pkg/storefront/api"
	"github.com/tendant/simple-storefront/pkg/storefront/mail"
	fsmedia "github.com/tendant/simple-storefront/pkg/storefront/media/fs"
	memorymedia "github.com/tendant/simple-storefront/pkg/storefront/media/memory"
	s3media "github.com/tendant/simple-storefront/pkg/storefront/media/s3"
	"github.com/tendant/simple-storefront/pkg/storefront/metrics"
	"github.com/tendant/simple-storefront/pkg/storefront/repo/memory"
	mongorepo "github.com/tendant/simple-storefront/pkg/storefront/repo/mongo"
	repopg "github.com/tendant/simple-storefront/pkg/storefront/repo/postgres"
	"github.com/tendant/simple-storefront/pkg/storefront/sessions"
)

// Runtime is a storefront wired from a ServerConfig
type Runtime struct {
	Config     *ServerConfig
	Repository storefront.Repository
	Media      storefront.MediaStore
	Mailer     storefront.Mailer
	Sessions   sessions.Store
	Metrics    *metrics.Metrics

	Catalog   *storefront.CatalogService
	Content   *storefront.ContentService
	Admin     *storefront.AdminService
	Contact   *storefront.ContactService
	SiteIndex *storefront.SiteIndexBuilder

	logger  *slog.Logger
	closers []func(context.Context) error
}

// Build connects the configured store, media backend and mailer and creates
// the services. Call Close to release connections.
func (c *ServerConfig) Build(ctx context.Context, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{Config: c, Metrics: metrics.New(), logger: logger}

	repo, err := rt.buildRepository(ctx)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	rt.Repository = repo

	media, err := c.buildMedia(ctx)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to build media store: %w", err)
	}
	rt.Media = media

	mailer, err := c.buildMailer(logger)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to build mailer: %w", err)
	}
	rt.Mailer = mailer

	store, err := rt.buildSessionStore(ctx)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to build session store: %w", err)
	}
	rt.Sessions = store

	if err := rt.buildServices(); err != nil {
		rt.Close(ctx)
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) buildRepository(ctx context.Context) (storefront.Repository, error) {
	c := rt.Config.Database
	switch c.Type {
	case "memory":
		return memory.New(), nil
	case "mongo":
		db, err := mongorepo.Connect(ctx, c.MongoURI, c.MongoDBName)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func(ctx context.Context) error {
			return db.Client().Disconnect(ctx)
		})
		repo := mongorepo.New(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, c.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		rt.closers = append(rt.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		repo := repopg.NewWithPool(pool)
		if c.EnsureSchema {
			if err := repo.EnsureSchema(ctx); err != nil {
				return nil, err
			}
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.Type)
	}
}

func (c *ServerConfig) buildMedia(ctx context.Context) (storefront.MediaStore, error) {
	m := c.Media
	switch m.Type {
	case "memory":
		return memorymedia.New(m.URLPrefix), nil
	case "fs":
		return fsmedia.New(fsmedia.Config{BaseDir: m.FSDir, URLPrefix: m.URLPrefix})
	case "s3":
		return s3media.New(ctx, s3media.Config{
			Region:                 m.S3.Region,
			Bucket:                 m.S3.Bucket,
			AccessKeyID:            m.S3.AccessKeyID,
			SecretAccessKey:        m.S3.SecretAccessKey,
			Endpoint:               m.S3.Endpoint,
			UsePathStyle:           m.S3.UsePathStyle,
			KeyPrefix:              m.S3.KeyPrefix,
			PublicBaseURL:          m.S3.PublicBaseURL,
			CreateBucketIfNotExist: m.S3.CreateBucket,
		})
	default:
		return nil, fmt.Errorf("unsupported media type: %s", m.Type)
	}
}

// buildMailer falls back to an in-memory recorder when no relay is configured
func (c *ServerConfig) buildMailer(logger *slog.Logger) (storefront.Mailer, error) {
	if c.Mail.Server == "" {
		logger.Warn("MAIL_SERVER not set, contact messages are recorded in memory only")
		return mail.NewRecorder(), nil
	}
	return mail.NewSMTPMailer(mail.Config{
		Host:     c.Mail.Server,
		Port:     c.Mail.Port,
		Username: c.Mail.Username,
		Password: c.Mail.Password,
		UseSSL:   c.Mail.UseSSL,
	}, logger)
}

func (rt *Runtime) buildSessionStore(ctx context.Context) (sessions.Store, error) {
	c := rt.Config.Sessions
	switch c.Type {
	case "memory":
		return sessions.NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		rt.closers = append(rt.closers, func(context.Context) error {
			return client.Close()
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return sessions.NewRedisStore(client), nil
	default:
		return nil, fmt.Errorf("unsupported session store: %s", c.Type)
	}
}

func (rt *Runtime) buildServices() error {
	opts := []storefront.Option{
		storefront.WithRepository(rt.Repository),
		storefront.WithMediaStore(rt.Media),
		storefront.WithMailer(rt.Mailer),
		storefront.WithObserver(rt.Metrics),
		storefront.WithLogger(rt.logger),
		storefront.WithBcryptCost(rt.Config.BcryptCost),
		storefront.WithContactConfig(storefront.ContactConfig{
			Sender:     rt.Config.Mail.Sender(),
			Recipients: rt.Config.Contact.Recipients,
			Subject:    rt.Config.Contact.Subject,
		}),
	}

	var err error
	if rt.Catalog, err = storefront.NewCatalogService(opts...); err != nil {
		return fmt.Errorf("failed to create catalog service: %w", err)
	}
	if rt.Content, err = storefront.NewContentService(opts...); err != nil {
		return fmt.Errorf("failed to create content service: %w", err)
	}
	if rt.Admin, err = storefront.NewAdminService(opts...); err != nil {
		return fmt.Errorf("failed to create admin service: %w", err)
	}
	if rt.Contact, err = storefront.NewContactService(opts...); err != nil {
		return fmt.Errorf("failed to create contact service: %w", err)
	}
	if rt.SiteIndex, err = storefront.NewSiteIndexBuilder(opts...); err != nil {
		return fmt.Errorf("failed to create site index builder: %w", err)
	}
	return nil
}

// Handler creates the HTTP handler over the runtime's services
func (rt *Runtime) Handler() (*api.Handler, error) {
	cfg := api.Config{
		Catalog:       rt.Catalog,
		Content:       rt.Content,
		Admin:         rt.Admin,
		Contact:       rt.Contact,
		SiteIndex:     rt.SiteIndex,
		BaseURL:       rt.Config.BaseURL,
		SessionSecret: rt.Config.SecretKey,
		SessionTTL:    rt.Config.SessionTTL,
		SecureCookies: rt.Config.Environment == "production",
		Revocations:   rt.Sessions,
		Logger:        rt.logger,
	}
	if opener, ok := rt.Media.(api.MediaOpener); ok {
		cfg.Media = opener
		cfg.MediaPath = rt.Config.Media.ServePath()
	}
	return api.New(cfg)
}

// Close releases connections in reverse order of creation
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
