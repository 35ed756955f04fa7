package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shaiso/Deployer/internal/domain"
	"github.com/shaiso/Deployer/internal/engine"
	"github.com/shaiso/Deployer/internal/progress"
	"github.com/shaiso/Deployer/internal/session"
	"github.com/shaiso/Deployer/internal/steps"
	"github.com/shaiso/Deployer/internal/telemetry"
)

// Engine выполняет flows из каталога.
//
// Engine не хранит состояния между запусками и может использоваться
// для нескольких запусков подряд. Один запуск монопольно владеет
// переданной сессией до возврата из RunFlow.
type Engine struct {
	catalog  *engine.Catalog
	registry *steps.Registry
	renderer engine.Renderer
	cacheDir string
	runs     RunStore
	logger   *slog.Logger
}

// Config — конфигурация Engine.
type Config struct {
	// Catalog — определения flow.
	Catalog *engine.Catalog

	// Registry — обработчики шагов.
	Registry *steps.Registry

	// Renderer — рендеринг шаблонов (default: engine.TextRenderer).
	Renderer engine.Renderer

	// CacheDir — корень локального кэша пакетов.
	CacheDir string

	// Runs — история запусков (опционально).
	Runs RunStore

	// Logger
	Logger *slog.Logger
}

// New создаёт Engine.
func New(cfg Config) *Engine {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog, _ = engine.NewCatalog()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = steps.NewRegistry()
	}

	renderer := cfg.Renderer
	if renderer == nil {
		renderer = engine.TextRenderer{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		catalog:  catalog,
		registry: registry,
		renderer: renderer,
		cacheDir: cfg.CacheDir,
		runs:     cfg.Runs,
		logger:   logger,
	}
}

// ListFlows возвращает все flows каталога в порядке загрузки.
func (e *Engine) ListFlows() []domain.FlowDefinition {
	return e.catalog.All()
}

// Lookup возвращает flow по имени или ErrFlowNotFound.
func (e *Engine) Lookup(name string) (*domain.FlowDefinition, error) {
	def, ok := e.catalog.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, name)
	}
	return def, nil
}

// RunFlow выполняет flow name против сессии sess.
//
// Неизвестное имя flow не считается ошибкой: RunFlow возвращает nil,
// ничего не выполняя. Вызывающий, которому это важно, проверяет имя
// через Lookup.
//
// Для каждого шага по порядку:
//  1. В sink отправляется индекс шага
//  2. Если у шага есть условие, оно выполняется на хосте;
//     код 0 означает, что шаг уже не нужен, и он пропускается
//  3. Шаг передаётся обработчику своего типа
//
// Первая ошибка прерывает запуск и возвращается без изменений.
func (e *Engine) RunFlow(
	ctx context.Context,
	name string,
	settings domain.HospitalSettings,
	args map[string]any,
	sess steps.Session,
	sink progress.Sink,
) error {
	def, ok := e.catalog.Lookup(name)
	if !ok {
		e.logger.Warn("flow not found, nothing to run", "flow", name)
		return nil
	}
	sink = progress.OrNop(sink)
	if args == nil {
		args = make(map[string]any)
	}

	run := domain.NewRun(def.Name, hostOf(sess), args, len(def.Steps))
	logger := telemetry.WithFlow(telemetry.WithRunID(e.logger, run.ID.String()), def.Name)
	state := NewRunState(run, def, e.runs, logger)

	logger.Info("flow started", "host", run.Host, "steps", len(def.Steps))
	state.Begin(ctx)

	err := e.execute(ctx, state, settings, args, sess, sink, logger)
	state.Finish(ctx, err)

	if err != nil {
		logger.Error("flow failed", "step", run.CurrentStep, "error", err)
		return err
	}

	logger.Info("flow finished", "skipped", len(state.Skipped), "duration", run.Duration())
	return nil
}

func (e *Engine) execute(
	ctx context.Context,
	state *RunState,
	settings domain.HospitalSettings,
	args map[string]any,
	sess steps.Session,
	sink progress.Sink,
	logger *slog.Logger,
) error {
	tmplCtx, err := e.buildContext(ctx, sess, settings, args)
	if err != nil {
		return err
	}
	logger.Debug("template context built", "os", tmplCtx.OS)

	for i := range state.Flow.Steps {
		step := &state.Flow.Steps[i]

		state.StepStarted(ctx, i)
		sink.StepChanged(ctx, i)

		req := &steps.Request{
			Index:           i,
			Step:            step,
			Args:            args,
			TemplateContext: tmplCtx,
			Renderer:        e.renderer,
			Session:         sess,
			Sink:            sink,
			CacheDir:        e.cacheDir,
			Logger:          telemetry.WithStep(logger, i, step.Label()),
		}

		skipped, err := e.runStep(ctx, req)
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Label(), err)
		}
		if skipped {
			state.StepSkipped(i)
		}
	}

	return nil
}

// runStep выполняет один шаг. Возвращает true, если шаг пропущен по условию.
func (e *Engine) runStep(ctx context.Context, req *steps.Request) (bool, error) {
	step := req.Step
	kind := step.Kind().String()

	if step.Condition != "" {
		condition, err := req.Render(step.Condition)
		if err != nil {
			telemetry.StepsTotal.WithLabelValues(kind, telemetry.OutcomeFailed).Inc()
			return false, fmt.Errorf("render condition: %w", err)
		}

		satisfied, err := req.Session.Test(ctx, condition)
		if err != nil {
			telemetry.StepsTotal.WithLabelValues(kind, telemetry.OutcomeFailed).Inc()
			return false, fmt.Errorf("evaluate condition: %w", err)
		}
		if satisfied {
			req.Logger.Info("condition is true, step skipped", "condition", condition)
			telemetry.StepsTotal.WithLabelValues(kind, telemetry.OutcomeSkipped).Inc()
			return true, nil
		}
	}

	handler, err := e.registry.Lookup(step)
	if err != nil {
		telemetry.StepsTotal.WithLabelValues(kind, telemetry.OutcomeFailed).Inc()
		return false, err
	}

	req.Logger.Debug("executing step", "kind", kind)

	start := time.Now()
	err = handler.Execute(ctx, req)
	telemetry.StepDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if err != nil {
		telemetry.StepsTotal.WithLabelValues(kind, telemetry.OutcomeFailed).Inc()
		return false, err
	}

	telemetry.StepsTotal.WithLabelValues(kind, telemetry.OutcomeExecuted).Inc()
	return false, nil
}

// buildContext определяет ОС хоста и собирает контекст шаблонов.
func (e *Engine) buildContext(ctx context.Context, sess steps.Session, settings domain.HospitalSettings, args map[string]any) (*engine.Context, error) {
	out, err := sess.Execute(ctx, session.OSProbeCommand)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOSProbe, err)
	}
	return engine.NewContext(ParseOS(out), settings, args), nil
}

// ParseOS возвращает первое значение PRETTY_NAME из вывода OSProbeCommand
// в нижнем регистре.
func ParseOS(out string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	return strings.ToLower(strings.TrimSpace(line))
}

// hostOf возвращает адрес хоста, если сессия его сообщает.
func hostOf(sess steps.Session) string {
	if a, ok := sess.(interface{ Addr() string }); ok {
		return a.Addr()
	}
	return ""
}
