package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tenantkit/tenantkit/pkg/config"
	"github.com/tenantkit/tenantkit/pkg/isolation"
	"github.com/tenantkit/tenantkit/pkg/logger"
	"github.com/tenantkit/tenantkit/pkg/pg"
	"github.com/tenantkit/tenantkit/pkg/tenant"
)

type appConfig struct {
	Addr            string `env:"ADDR" envDefault:":8080"`
	Env             string `env:"APP_ENV" envDefault:"development"`
	SubdomainSuffix string `env:"TENANT_SUBDOMAIN_SUFFIX"`
	RedisURL        string `env:"REDIS_URL"`
	DatabaseURL     string `env:"PG_CONN_URL"`
	RunMigrations   bool   `env:"PG_RUN_MIGRATIONS" envDefault:"false"`
}

func main() {
	ctx := context.Background()

	var cfg appConfig
	config.MustLoad(&cfg)

	logOpt := logger.WithDevelopment("tenantd")
	if cfg.Env == "production" {
		logOpt = logger.WithProduction("tenantd")
	}
	log := logger.New(logOpt, logger.WithContextExtractors(tenant.LoggerExtractor()))
	logger.SetAsDefault(log)

	// Demo registry; a real deployment plugs its own Registry in.
	registry := tenant.Registry(tenant.NewStaticRegistry(
		&tenant.Tenant{ID: "1", Slug: "acme", Name: "Acme Corp", Active: true, CreatedAt: time.Now()},
		&tenant.Tenant{ID: "2", Slug: "beta", Name: "Beta Inc", Active: true, CreatedAt: time.Now()},
	))

	cache := tenant.NewMemoryCache()
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("invalid redis url", logger.Error(err))
			os.Exit(1)
		}
		cache = tenant.NewRedisCache(redis.NewClient(opt), "tenant:")
	}
	defer cache.Close()
	registry = tenant.NewCachedRegistry(registry, cache, 5*time.Minute)

	var chainCfg tenant.ChainConfig
	config.MustLoad(&chainCfg)

	chain, err := tenant.BuildChain(chainCfg, registry, []tenant.NamedResolver{
		tenant.Named("subdomain", tenant.NewSubdomainResolver(cfg.SubdomainSuffix)),
		tenant.NamedHeader("header", "X-Tenant-ID", tenant.NewHeaderResolver("X-Tenant-ID")),
		tenant.Named("query", tenant.NewQueryResolver("tenant")),
		tenant.Named("path", tenant.NewPathResolver(2)),
	}, tenant.WithChainLogger(log))
	if err != nil {
		log.Error("invalid chain configuration", logger.Error(err))
		os.Exit(1)
	}

	catalog := isolation.NewCatalog()
	catalog.MustRegister(isolation.EntityMeta{Entity: "Product", Table: "products", TenantAware: true, ColumnType: isolation.ColumnInteger})
	catalog.MustRegister(isolation.EntityMeta{Entity: "GlobalSetting", Table: "global_settings"})
	filter := isolation.NewFilter(catalog, isolation.WithFilterLogger(log))

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var pgCfg pg.Config
		config.MustLoad(&pgCfg)
		pool, err = pg.Connect(ctx, pgCfg)
		if err != nil {
			log.Error("database unavailable", logger.Error(err))
			os.Exit(1)
		}
		defer pool.Close()

		if cfg.RunMigrations {
			if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
				log.Error("migrations failed", logger.Error(err))
				os.Exit(1)
			}
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(tenant.Middleware(chain, tenant.WithSkipPaths([]string{"/healthz"})))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			if err := pg.Healthcheck(pool)(r.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		t := tenant.MustFromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(t)
	})

	r.Get("/products", func(w http.ResponseWriter, r *http.Request) {
		if pool == nil {
			http.Error(w, "no database configured", http.StatusServiceUnavailable)
			return
		}

		q := &isolation.Query{Refs: []isolation.TableRef{{Entity: "Product", Alias: "p"}}}
		preds, err := filter.Apply(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		sql := "SELECT p.id, p.name FROM products p"
		var args []any
		if len(preds) > 0 {
			sql += " WHERE " + strings.Replace(preds[0].SQL, "?", "$1", 1)
			args = append(args, preds[0].Arg)
		}

		type product struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		}
		var products []product

		err = pg.WithSession(r.Context(), pool, pg.DefaultSessionVariable, func(conn pg.SessionConn) error {
			rows, err := conn.Query(r.Context(), sql, args...)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var p product
				if err := rows.Scan(&p.ID, &p.Name); err != nil {
					return err
				}
				products = append(products, p)
			}
			return rows.Err()
		})
		if err != nil {
			log.ErrorContext(r.Context(), "product query failed", logger.Error(err))
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(products)
	})

	log.Info("tenantd listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}
