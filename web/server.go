package web

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzhttp"
	"github.com/xcono/relfilter/filter"
	"github.com/xcono/relfilter/schema"
	"github.com/xcono/relfilter/web/database"
	"github.com/xcono/relfilter/web/handlers"
	"github.com/xcono/relfilter/web/query"
	"github.com/xcono/relfilter/web/response"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/time/rate"
)

// Service is an opened service: database, driver and schema catalog.
type Service struct {
	DB      *sql.DB
	Driver  string
	Catalog *schema.Catalog
}

// OpenService opens the database of a configured service and builds its catalog.
// Schemas without fields are completed from the database columns.
func OpenService(ctx context.Context, cfg schema.Service) (*Service, error) {
	catalog, err := schema.NewCatalog(cfg.Schemas)
	if err != nil {
		return nil, fmt.Errorf("invalid schemas: %w", err)
	}

	db, driver, err := schema.OpenDB(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	inspector, err := schema.NewDatabase(driver, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := catalog.Load(ctx, inspector); err != nil {
		db.Close()
		return nil, err
	}

	return &Service{DB: db, Driver: driver, Catalog: catalog}, nil
}

// SelectService returns the named service, or the only one when name is empty.
func SelectService(c schema.Config, name string) (schema.Service, error) {
	if name != "" {
		s, ok := c.Services[name]
		if !ok {
			return schema.Service{}, fmt.Errorf("unknown service %q", name)
		}
		return s, nil
	}
	if len(c.Services) != 1 {
		return schema.Service{}, fmt.Errorf("%d services configured, name one", len(c.Services))
	}
	for _, s := range c.Services {
		return s, nil
	}
	return schema.Service{}, nil
}

// NewHandler wires the HTTP routes of a service.
// Requests are tagged with an id and instrumented. The rate limit applies when configured.
func NewHandler(svc *Service, c schema.Config) http.Handler {
	executor := query.NewExecutor(database.NewExecutor(svc.DB), svc.Catalog, schema.Flavor(svc.Driver))
	router := handlers.NewRouter(executor, svc.Catalog)
	m := newMetrics()

	mux := http.NewServeMux()
	if c.Metrics != "" {
		mux.Handle(c.Metrics, m.handler())
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, "+requestIDHeader)

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		if strings.Trim(r.URL.Path, "/") == "" {
			handleRoot(w, svc.Catalog)
			return
		}

		router.HandleEntity(w, r)
	})

	var h http.Handler = gzhttp.GzipHandler(mux)
	h = m.instrument(h)
	if c.RateLimit > 0 {
		h = withRateLimit(rate.NewLimiter(rate.Limit(c.RateLimit), max(c.RateBurst, 1)), h)
	}
	return withRequestID(h)
}

// StartServer serves the named service until the listener fails.
func StartServer(c schema.Config, name string) error {
	cfg, err := SelectService(c, name)
	if err != nil {
		return err
	}

	svc, err := OpenService(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer svc.DB.Close()

	logx.Infof("Starting server on %s", c.Listen)
	logx.Infof("Entities: %s", strings.Join(svc.Catalog.Entities(), ", "))
	return http.ListenAndServe(c.Listen, NewHandler(svc, c))
}

// handleRoot returns API information
func handleRoot(w http.ResponseWriter, catalog *schema.Catalog) {
	response.WriteJSON(w, map[string]interface{}{
		"name":      "relfilter",
		"entities":  catalog.Entities(),
		"usage":     "GET /{entity}?filters[relation][field][$op]=value",
		"operators": filter.DefaultRegistry.Tokens(),
	})
}
