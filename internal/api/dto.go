package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Deployer/internal/domain"
)

// FlowSummary — flow в списке.
type FlowSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	Local       bool   `json:"local"`
	Steps       int    `json:"steps"`
}

// FlowSummaryFromDomain конвертирует domain.FlowDefinition в FlowSummary.
func FlowSummaryFromDomain(f domain.FlowDefinition) FlowSummary {
	return FlowSummary{
		Name:        f.Name,
		Description: f.Description,
		Icon:        f.Icon,
		Local:       f.Local,
		Steps:       len(f.Steps),
	}
}

// RunResponse — ответ с запуском.
type RunResponse struct {
	ID          uuid.UUID        `json:"id"`
	FlowName    string           `json:"flow_name"`
	Host        string           `json:"host,omitempty"`
	Status      domain.RunStatus `json:"status"`
	Args        map[string]any   `json:"args,omitempty"`
	StepCount   int              `json:"step_count"`
	CurrentStep int              `json:"current_step"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	FinishedAt  *time.Time       `json:"finished_at,omitempty"`
	DurationMs  int64            `json:"duration_ms,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	resp := RunResponse{
		ID:          r.ID,
		FlowName:    r.FlowName,
		Host:        r.Host,
		Status:      r.Status,
		Args:        r.Args,
		StepCount:   r.StepCount,
		CurrentStep: r.CurrentStep,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
	}
	if r.StartedAt != nil {
		resp.DurationMs = r.Duration().Milliseconds()
	}
	return resp
}
