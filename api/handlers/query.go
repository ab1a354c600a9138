package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/econdata/econfed/api"
	"github.com/econdata/econfed/internal/model"
	"github.com/econdata/econfed/internal/orchestrate"
	"github.com/econdata/econfed/types"
)

// QueryHandler serves POST /v1/query: one or more free-text indicator terms
// resolved and fetched through the orchestrator, with routing/fallback
// applied independently per indicator.
type QueryHandler struct {
	orchestrator *orchestrate.Orchestrator
	logger       *zap.Logger
}

// NewQueryHandler builds a QueryHandler.
func NewQueryHandler(o *orchestrate.Orchestrator, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{orchestrator: o, logger: logger}
}

// HandleQuery decodes a QueryRequest, fans it out through the orchestrator,
// and returns one SeriesResult per requested indicator in request order.
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidInput, "only POST is supported", h.logger)
		return
	}

	var req api.QueryRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	indicators := req.Indicators
	if len(indicators) == 0 && req.Query != "" {
		indicators = []string{req.Query}
	}
	if len(indicators) == 0 {
		apiErr := types.NewError(types.ErrInvalidInput, "query or indicators must be provided").WithHTTPStatus(http.StatusBadRequest)
		WriteError(w, apiErr, h.logger)
		return
	}

	intent := model.ParsedIntent{
		Provider:      req.Provider,
		Indicators:    indicators,
		Parameters:    req.Parameters,
		OriginalQuery: firstNonEmpty(req.Query, indicators[0]),
	}

	results := h.orchestrator.Execute(r.Context(), intent)

	resp := api.QueryResponse{Results: make([]api.SeriesResult, len(results))}
	for i, res := range results {
		sr := api.SeriesResult{Indicator: res.Indicator, Warnings: res.Warnings}
		if res.Err != nil {
			sr.Error = &api.ErrorInfo{
				Code:       string(res.Err.Code),
				Message:    res.Err.Message,
				Retryable:  res.Err.Retryable,
				HTTPStatus: res.Err.HTTPStatusOrDefault(),
			}
		} else {
			dto := seriesToDTO(res.Series)
			sr.Series = &dto
		}
		resp.Results[i] = sr
	}

	WriteSuccess(w, resp)
}

func seriesToDTO(s model.CanonicalSeries) api.SeriesDTO {
	points := make([]api.PointDTO, len(s.Points))
	for i, p := range s.Points {
		points[i] = api.PointDTO{Date: p.Date, Value: p.Value}
	}
	return api.SeriesDTO{
		Metadata: api.SeriesMetadataDTO{
			Source:             s.Metadata.Source,
			Indicator:          s.Metadata.Indicator,
			Country:            s.Metadata.Country,
			SeriesID:           s.Metadata.SeriesID,
			Frequency:          string(s.Metadata.Frequency),
			Unit:               s.Metadata.Unit,
			DataType:           s.Metadata.DataType,
			PriceType:          s.Metadata.PriceType,
			SeasonalAdjustment: s.Metadata.SeasonalAdjustment,
			StartDate:          s.Metadata.StartDate,
			EndDate:            s.Metadata.EndDate,
			APIUrl:             s.Metadata.APIUrl,
			SourceURL:          s.Metadata.SourceURL,
			Description:        s.Metadata.Description,
			Notes:              s.Metadata.Notes,
		},
		Points: points,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
