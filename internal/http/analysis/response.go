package analysis

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ascendia/internal/analysis"
)

type analysisResponse struct {
	ID        uuid.UUID `json:"id"`
	Analysis  string    `json:"analysis"`
	FromDate  string    `json:"from_date"`
	ToDate    string    `json:"to_date"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(a *analysis.Analysis) analysisResponse {
	return analysisResponse{
		ID:        a.ID,
		Analysis:  a.Content,
		FromDate:  a.From.Format(time.DateOnly),
		ToDate:    a.To.Format(time.DateOnly),
		CreatedAt: a.CreatedAt,
	}
}

func toResponseList(analyses []*analysis.Analysis) []analysisResponse {
	resp := make([]analysisResponse, len(analyses))
	for i, a := range analyses {
		resp[i] = toResponse(a)
	}

	return resp
}
