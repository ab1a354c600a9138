package handlers

import (
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/econdata/econfed/api"
	"github.com/econdata/econfed/internal/catalog"
	"github.com/econdata/econfed/types"
)

// ConceptsHandler serves GET /v1/concepts: the set of economic concepts the
// catalog can resolve, with their synonyms and covering providers.
type ConceptsHandler struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewConceptsHandler builds a ConceptsHandler.
func NewConceptsHandler(cat *catalog.Catalog, logger *zap.Logger) *ConceptsHandler {
	return &ConceptsHandler{catalog: cat, logger: logger}
}

// HandleList returns every loaded concept, alphabetically by name.
func (h *ConceptsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidInput, "only GET is supported", h.logger)
		return
	}

	names := h.catalog.All()
	sort.Strings(names)

	summaries := make([]api.ConceptSummary, 0, len(names))
	for _, name := range names {
		summaries = append(summaries, api.ConceptSummary{
			Name:      name,
			Synonyms:  h.catalog.Synonyms(name),
			Providers: h.catalog.AvailableProviders(name),
		})
	}

	WriteSuccess(w, api.ConceptsResponse{Concepts: summaries})
}
