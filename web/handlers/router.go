package handlers

import (
	"net/http"
	"strings"

	"github.com/xcono/relfilter/schema"
	"github.com/xcono/relfilter/web/query"
	"github.com/xcono/relfilter/web/response"
)

// Router handles request routing and delegates to appropriate handlers
type Router struct {
	catalog       *schema.Catalog
	selectHandler *SelectHandler
}

// NewRouter creates a new request router
func NewRouter(executor *query.Executor, catalog *schema.Catalog) *Router {
	return &Router{
		catalog:       catalog,
		selectHandler: NewSelectHandler(executor),
	}
}

// HandleEntity handles requests to a specific entity
func (r *Router) HandleEntity(w http.ResponseWriter, req *http.Request) {
	pathParts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	if len(pathParts) != 1 || pathParts[0] == "" {
		response.WriteNotFound(w, "Not found", "Expected /{entity}")
		return
	}

	entity := pathParts[0]
	if !r.catalog.HasEntity(entity) {
		response.WriteNotFound(w, "Unknown entity", entity)
		return
	}

	switch req.Method {
	case http.MethodGet:
		r.selectHandler.Handle(w, req, entity)
	default:
		response.WriteMethodNotAllowed(w, req.Method)
	}
}
