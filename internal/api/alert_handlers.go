package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/macarvajall/OFAC/internal/domain"
	"github.com/macarvajall/OFAC/internal/search"
	"github.com/macarvajall/OFAC/internal/service"
)

func (s *Server) registerAlertRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listAlerts",
		Method:      http.MethodGet,
		Path:        "/api/v1/alerts",
		Summary:     "List alerts",
		Description: "Returns emitted alerts newest first, optionally filtered by source or classification",
		Tags:        []string{"Alerts"},
	}, s.handleListAlerts)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchAlerts",
		Method:      http.MethodGet,
		Path:        "/api/v1/alerts/search",
		Summary:     "Search alerts",
		Description: "Full-text search over emitted alerts by mention or entity name",
		Tags:        []string{"Alerts"},
	}, s.handleSearchAlerts)
}

// ListAlertsInput contains the alert listing filters.
type ListAlertsInput struct {
	Source         string `query:"source" validate:"omitempty,max=100" doc:"Only alerts from this source"`
	Classification string `query:"classification" validate:"omitempty,oneof=MATCH CANDIDATE" doc:"Only alerts with this verdict"`
	Limit          int    `query:"limit" validate:"omitempty,gte=1" doc:"Maximum alerts to return (capped by server config)"`
}

// AlertView is one alert in API responses.
type AlertView struct {
	ID             string  `json:"id" doc:"Alert ID"`
	FirstSeen      string  `json:"first_seen" doc:"When the detection was first recorded (RFC 3339)"`
	SourceID       string  `json:"source_id" doc:"Source that carried the mention"`
	Name           string  `json:"name" doc:"Extracted name as it appeared"`
	EntityUID      string  `json:"entity_uid" doc:"Matched SDN entity UID"`
	EntityName     string  `json:"entity_name" doc:"Matched entity's primary name"`
	Score          float64 `json:"score" doc:"Similarity score in [0,1]"`
	Classification string  `json:"classification" doc:"MATCH or CANDIDATE"`
	Label          string  `json:"label" doc:"Analyst-facing display label"`
	URL            string  `json:"url,omitempty" doc:"Source item link"`
	Context        string  `json:"context,omitempty" doc:"Text surrounding the mention"`
}

// ListAlertsResponse contains the alert listing.
type ListAlertsResponse struct {
	Alerts []AlertView `json:"alerts" doc:"Alerts, newest first"`
	Total  int         `json:"total" doc:"Alerts returned"`
}

// ListAlertsOutput wraps the listing for Huma.
type ListAlertsOutput struct {
	Body ListAlertsResponse
}

func (s *Server) handleListAlerts(ctx context.Context, input *ListAlertsInput) (*ListAlertsOutput, error) {
	alerts, err := s.services.Alerts.List(ctx, service.ListFilter{
		SourceID:       input.Source,
		Classification: domain.Classification(input.Classification),
		Limit:          input.Limit,
	})
	if err != nil {
		return nil, err
	}

	views := make([]AlertView, 0, len(alerts))
	for i := range alerts {
		views = append(views, alertView(&alerts[i]))
	}
	return &ListAlertsOutput{Body: ListAlertsResponse{
		Alerts: views,
		Total:  len(views),
	}}, nil
}

// SearchAlertsInput contains the alert search parameters.
type SearchAlertsInput struct {
	Query          string `query:"q" validate:"required,min=1,max=200" doc:"Search query"`
	Source         string `query:"source" validate:"omitempty,max=100" doc:"Only alerts from this source"`
	Classification string `query:"classification" validate:"omitempty,oneof=MATCH CANDIDATE" doc:"Only alerts with this verdict"`
	Limit          int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset         int    `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset"`
}

// SearchAlertsOutput wraps the search result for Huma.
type SearchAlertsOutput struct {
	Body search.Result
}

func (s *Server) handleSearchAlerts(ctx context.Context, input *SearchAlertsInput) (*SearchAlertsOutput, error) {
	result, err := s.services.Alerts.Search(ctx, search.Params{
		Query:          input.Query,
		SourceID:       input.Source,
		Classification: input.Classification,
		Limit:          input.Limit,
		Offset:         input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SearchAlertsOutput{Body: *result}, nil
}

// handleExportAlerts streams every alert as a CSV download.
func (s *Server) handleExportAlerts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ofac_alerts.csv"`)

	if err := s.services.Alerts.ExportCSV(r.Context(), w); err != nil {
		// Headers are committed by the first row, so only log.
		s.logger.Error("alert export failed", "error", err)
	}
}

func alertView(a *domain.AlertRecord) AlertView {
	return AlertView{
		ID:             a.ID,
		FirstSeen:      a.FirstSeen.Format("2006-01-02T15:04:05Z07:00"),
		SourceID:       a.Mention.SourceID,
		Name:           a.Mention.Raw,
		EntityUID:      a.Result.EntityUID,
		EntityName:     a.Result.EntityName,
		Score:          a.Result.Score,
		Classification: string(a.Result.Classification),
		Label:          a.Result.Classification.Label(),
		URL:            a.Mention.URL,
		Context:        a.Mention.Context,
	}
}
