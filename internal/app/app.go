package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/order-console/internal/adapter/push"
	"github.com/rl1809/order-console/internal/adapter/rest"
	"github.com/rl1809/order-console/internal/adapter/session"
	"github.com/rl1809/order-console/internal/adapter/storage"
	"github.com/rl1809/order-console/internal/config"
	"github.com/rl1809/order-console/internal/core/domain"
	"github.com/rl1809/order-console/internal/core/service"
	"github.com/rl1809/order-console/internal/metrics"
	"github.com/rl1809/order-console/internal/port"
)

const connectTimeout = 3 * time.Second

// App holds the adapters shared by every command of one console process and
// builds the core components on top of them.
type App struct {
	Config   config.Config
	Identity domain.Identity
	Logger   *logrus.Logger
	Metrics  *metrics.Registry
	Notices  *service.NoticeBoard
	API      *rest.Client

	dialer  *push.Dialer
	cache   *storage.RedisAdapter
	journal *storage.MySQLAdapter
	rdb     *redis.Client
	db      *sql.DB
}

// New validates cfg and connects the adapters. The Redis cache and MySQL
// journal are optional: an empty address skips them and an unreachable one
// is logged and skipped, so only configuration errors fail here.
func New(ctx context.Context, cfg config.Config, logger *logrus.Logger, sink func(domain.Notice)) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	identity, err := session.FromToken(cfg.AccessToken, cfg.Username, time.Now())
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}

	api, err := rest.NewClient(cfg.APIRoot, identity, newHTTPClient())
	if err != nil {
		return nil, err
	}
	dialer, err := push.NewDialer(cfg.PushRoot, identity, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Identity: identity,
		Logger:   logger,
		Metrics:  metrics.NewRegistry(),
		Notices:  service.NewNoticeBoard(cfg.ErrorNoticeTTL, cfg.SuccessNoticeTTL, sink),
		API:      api,
		dialer:   dialer,
	}

	if cfg.RedisAddr != "" {
		a.connectRedis(ctx)
	}
	if cfg.MySQLDSN != "" {
		a.connectMySQL(ctx)
	}
	return a, nil
}

func (a *App) connectRedis(ctx context.Context) {
	rdb := redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr, PoolSize: 4})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		a.Logger.WithError(err).WithField("addr", a.Config.RedisAddr).Warn("history cache unavailable")
		rdb.Close()
		return
	}
	a.rdb = rdb
	a.cache = storage.NewRedisAdapter(rdb, a.Config.HistoryCacheTTL)
	a.Logger.Info("connected to redis")
}

// journalDSN turns on parseTime, which reading the journal back needs.
func journalDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func (a *App) connectMySQL(ctx context.Context) {
	dsn, err := journalDSN(a.Config.MySQLDSN)
	if err != nil {
		a.Logger.WithError(err).Warn("journal unavailable: bad MYSQL_DSN")
		return
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		a.Logger.WithError(err).Warn("journal unavailable")
		return
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	journal := storage.NewMySQLAdapter(db)
	if err := db.PingContext(pingCtx); err != nil {
		a.Logger.WithError(err).Warn("journal unavailable")
		db.Close()
		return
	}
	if err := journal.Migrate(pingCtx); err != nil {
		a.Logger.WithError(err).Warn("journal migration failed")
		db.Close()
		return
	}
	a.db = db
	a.journal = journal
	a.Logger.Info("connected to mysql")
}

// Journal returns the MySQL journal, or nil when none is connected.
func (a *App) Journal() *storage.MySQLAdapter { return a.journal }

func (a *App) options() []service.Option {
	opts := []service.Option{
		service.WithLogger(a.Logger),
		service.WithMetrics(a.Metrics),
		service.WithNotifier(a.Notices),
	}
	if a.journal != nil {
		opts = append(opts, service.WithJournal(a.journal))
	}
	return opts
}

// Synchronizer builds the history view for scope. Admin scope polls on
// ADMIN_POLL_INTERVAL, user scope on USER_POLL_INTERVAL (off by default).
func (a *App) Synchronizer(scope domain.Scope, confirmer port.Confirmer) *service.Synchronizer {
	interval := a.Config.UserPollInterval
	if scope == domain.ScopeAdmin {
		interval = a.Config.AdminPollInterval
	}
	opts := append(a.options(),
		service.WithPollInterval(interval),
		service.WithPushDialer(a.dialer),
		service.WithReconnect(a.Config.ReconnectAttempts, a.Config.ReconnectBackoff),
	)
	if confirmer != nil {
		opts = append(opts, service.WithConfirmer(confirmer))
	}
	if a.cache != nil {
		opts = append(opts, service.WithHistoryCache(a.cache))
	}
	return service.NewSynchronizer(scope, a.Identity, a.API, opts...)
}

func (a *App) Composer(refresher port.Refresher) *service.Composer {
	return service.NewComposer(a.Identity, a.API, refresher, a.options()...)
}

func (a *App) Search() *service.ProductSearch {
	opts := append(a.options(),
		service.WithSearchDebounce(a.Config.SearchDebounce),
		service.WithSearchMinChars(a.Config.SearchMinChars),
	)
	return service.NewProductSearch(a.API, opts...)
}

func (a *App) Close() error {
	var errs []error
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
