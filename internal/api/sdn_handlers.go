package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/macarvajall/OFAC/internal/service"
)

func (s *Server) registerSDNRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchSDN",
		Method:      http.MethodGet,
		Path:        "/api/v1/sdn/search",
		Summary:     "Search the sanctions list",
		Description: "Fuzzy-scores a name against the current SDN snapshot and returns the strongest hits",
		Tags:        []string{"SDN"},
	}, s.handleSearchSDN)
}

// SearchSDNInput contains the direct-search parameters.
type SearchSDNInput struct {
	Name  string `query:"name" validate:"required,min=2,max=200" doc:"Name to screen"`
	Limit int    `query:"limit" validate:"omitempty,gte=1,lte=50" doc:"Max hits (default 10)"`
}

// SearchSDNResponse contains the direct-search hits.
type SearchSDNResponse struct {
	Query string           `json:"query" doc:"Name as submitted"`
	Hits  []service.SDNHit `json:"hits" doc:"Strongest matches, best first, one per distinct person"`
}

// SearchSDNOutput wraps the response for Huma.
type SearchSDNOutput struct {
	Body SearchSDNResponse
}

func (s *Server) handleSearchSDN(ctx context.Context, input *SearchSDNInput) (*SearchSDNOutput, error) {
	hits, err := s.services.Screening.SearchSDN(ctx, input.Name, input.Limit)
	if err != nil {
		return nil, err
	}
	return &SearchSDNOutput{Body: SearchSDNResponse{
		Query: input.Name,
		Hits:  hits,
	}}, nil
}
