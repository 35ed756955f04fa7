package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — один запуск flow против одного хоста.
//
// Run создаётся при вызове RunFlow и хранится в истории запусков
// (если история включена). На выполнение шагов не влияет.
type Run struct {
	// ID — уникальный идентификатор запуска.
	ID uuid.UUID `json:"id"`

	// FlowName — имя выполняемого flow.
	FlowName string `json:"flow_name"`

	// Host — адрес целевого хоста.
	Host string `json:"host,omitempty"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Args — аргументы, переданные при запуске.
	Args map[string]any `json:"args,omitempty"`

	// StepCount — количество шагов в flow.
	StepCount int `json:"step_count"`

	// CurrentStep — индекс последнего начатого шага (-1, если ни одного).
	CurrentStep int `json:"current_step"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки, если запуск завершился с FAILED.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`
}

// NewRun создаёт запуск в статусе PENDING.
func NewRun(flowName, host string, args map[string]any, stepCount int) *Run {
	return &Run{
		ID:          uuid.New(),
		FlowName:    flowName,
		Host:        host,
		Status:      RunStatusPending,
		Args:        args,
		StepCount:   stepCount,
		CurrentStep: -1,
		CreatedAt:   time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит run в статус SUCCEEDED.
func (r *Run) MarkSucceeded() {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
}

// MarkFailed переводит run в статус FAILED с ошибкой.
func (r *Run) MarkFailed(err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.Error = err
}
