package handlers

import (
	"errors"
	"net/http"

	"github.com/xcono/relfilter/filter"
	"github.com/xcono/relfilter/web/query"
	"github.com/xcono/relfilter/web/response"
	"github.com/zeromicro/go-zero/core/logx"
)

// SelectHandler handles GET requests for data retrieval
type SelectHandler struct {
	executor *query.Executor
}

// NewSelectHandler creates a new SELECT handler
func NewSelectHandler(executor *query.Executor) *SelectHandler {
	return &SelectHandler{executor: executor}
}

// Handle handles SELECT requests
func (h *SelectHandler) Handle(w http.ResponseWriter, r *http.Request, entity string) {
	results, err := h.executor.ExecuteSelect(r.Context(), entity, r.URL.Query())
	if err != nil {
		var ferr *filter.Error
		if errors.As(err, &ferr) {
			logx.WithContext(r.Context()).Infof("rejected filter on %s: %v", entity, ferr)
			response.WriteFilterError(w, ferr)
			return
		}
		logx.WithContext(r.Context()).Errorf("select %s: %v", entity, err)
		response.WriteDatabaseError(w, "query", err)
		return
	}

	response.WriteRows(w, r.Header.Get("Accept"), results)
}
