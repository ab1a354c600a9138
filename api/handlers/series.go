package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/econdata/econfed/internal/orchestrate"
	"github.com/econdata/econfed/types"
)

// SeriesHandler serves GET /v1/series/{provider}/{code}: a direct series
// fetch that names its provider and code explicitly, bypassing the
// query-term resolver and router entirely.
type SeriesHandler struct {
	orchestrator *orchestrate.Orchestrator
	logger       *zap.Logger
}

// NewSeriesHandler builds a SeriesHandler.
func NewSeriesHandler(o *orchestrate.Orchestrator, logger *zap.Logger) *SeriesHandler {
	return &SeriesHandler{orchestrator: o, logger: logger}
}

// HandleGet serves the direct fetch, forwarding query-string parameters
// (start_date, end_date, country, frequency, ...) to the provider adapter.
func (h *SeriesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidInput, "only GET is supported", h.logger)
		return
	}

	provider := r.PathValue("provider")
	code := r.PathValue("code")
	if provider == "" || code == "" {
		apiErr := types.NewError(types.ErrInvalidInput, "provider and code path segments are required").WithHTTPStatus(http.StatusBadRequest)
		WriteError(w, apiErr, h.logger)
		return
	}

	params := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	series, issues, err := h.orchestrator.FetchDirect(r.Context(), provider, code, params)
	if err != nil {
		var apiErr *types.Error
		if asErr, ok := err.(*types.Error); ok {
			apiErr = asErr
		} else {
			apiErr = types.NewError(types.ErrProviderIntegration, err.Error()).WithProvider(provider)
		}
		WriteError(w, apiErr, h.logger)
		return
	}

	dto := seriesToDTO(series)
	WriteSuccess(w, struct {
		Series   any      `json:"series"`
		Warnings []string `json:"warnings,omitempty"`
	}{Series: dto, Warnings: issues})
}
