package orchestrator

import (
	"context"
	"log/slog"

	"github.com/shaiso/Deployer/internal/domain"
	"github.com/shaiso/Deployer/internal/telemetry"
)

// RunStore — хранилище истории запусков.
// Реализуется repo.RunRepo.
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
	Update(ctx context.Context, run *domain.Run) error
}

// RunState — состояние одного запуска flow в памяти.
//
// Создаётся в начале RunFlow и живёт до его завершения.
// Ошибки записи в RunStore только логируются: история
// не должна влиять на выполнение.
type RunState struct {
	// Run — запись о запуске.
	Run *domain.Run

	// Flow — выполняемое определение.
	Flow *domain.FlowDefinition

	// Skipped — индексы шагов, пропущенных по условию.
	Skipped []int

	store  RunStore
	logger *slog.Logger
}

// NewRunState создаёт состояние запуска.
func NewRunState(run *domain.Run, flow *domain.FlowDefinition, store RunStore, logger *slog.Logger) *RunState {
	return &RunState{
		Run:    run,
		Flow:   flow,
		store:  store,
		logger: logger,
	}
}

// Begin переводит запуск в RUNNING и создаёт запись в истории.
func (s *RunState) Begin(ctx context.Context) {
	s.Run.MarkRunning()
	if s.store == nil {
		return
	}
	if err := s.store.Create(ctx, s.Run); err != nil {
		s.logger.Warn("failed to record run", "error", err)
	}
}

// StepStarted сдвигает курсор на шаг index.
func (s *RunState) StepStarted(ctx context.Context, index int) {
	s.Run.CurrentStep = index
	s.save(ctx)
}

// StepSkipped отмечает шаг как пропущенный по условию.
func (s *RunState) StepSkipped(index int) {
	s.Skipped = append(s.Skipped, index)
}

// Finish завершает запуск: SUCCEEDED при err == nil, иначе FAILED.
func (s *RunState) Finish(ctx context.Context, err error) {
	if err != nil {
		s.Run.MarkFailed(err.Error())
	} else {
		s.Run.MarkSucceeded()
	}
	telemetry.FlowRunsTotal.WithLabelValues(s.Run.FlowName, s.Run.Status.String()).Inc()
	s.save(ctx)
}

func (s *RunState) save(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Update(ctx, s.Run); err != nil {
		s.logger.Warn("failed to update run", "error", err, "status", s.Run.Status)
	}
}
