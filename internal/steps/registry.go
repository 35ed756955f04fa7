package steps

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shaiso/Deployer/internal/archive"
	"github.com/shaiso/Deployer/internal/domain"
	"github.com/shaiso/Deployer/internal/resolver"
)

// Registry — реестр обработчиков шагов.
//
// Позволяет регистрировать и получать реализации Step по типу.
// Потокобезопасен.
type Registry struct {
	mu    sync.RWMutex
	steps map[domain.StepKind]Step
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[domain.StepKind]Step),
	}
}

// Deps — внешние зависимости стандартных обработчиков.
type Deps struct {
	// Resolver — источник пакетов для downloadPackage.
	Resolver resolver.Resolver

	// Decompressor — распаковка для decompressionOfflinePackage.
	Decompressor archive.Decompressor
}

// DefaultRegistry создаёт реестр со всеми стандартными шагами.
func DefaultRegistry(deps Deps) *Registry {
	r := NewRegistry()

	r.Register(NewRunCommandStep())
	r.Register(NewDownloadPackageStep(deps.Resolver))
	r.Register(NewTransferPackageStep())
	r.Register(NewTransferConfigFileStep())
	r.Register(NewTransferFileStep())
	r.Register(NewDecompressStep(deps.Decompressor))

	return r
}

// Register регистрирует шаг в реестре.
// Если шаг с таким типом уже существует, он будет перезаписан.
func (r *Registry) Register(step Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[step.Kind()] = step
}

// Get возвращает шаг по типу.
// Возвращает ErrStepNotFound, если шаг не найден.
func (r *Registry) Get(kind domain.StepKind) (Step, error) {
	return r.get(kind, kind.String())
}

// Lookup возвращает обработчик для шага flow.
// В ошибке указывается исходный тег шага, а не StepKindUnknown.
func (r *Registry) Lookup(step *domain.FlowStep) (Step, error) {
	return r.get(step.Kind(), step.Type)
}

func (r *Registry) get(kind domain.StepKind, tag string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	step, exists := r.steps[kind]
	if !exists || kind == domain.StepKindUnknown {
		return nil, fmt.Errorf("%w: %w: %s", ErrFlowExecutionFailed, ErrStepNotFound, tag)
	}

	return step, nil
}

// Has проверяет, зарегистрирован ли шаг.
func (r *Registry) Has(kind domain.StepKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.steps[kind]
	return exists
}

// Kinds возвращает список всех зарегистрированных типов шагов.
func (r *Registry) Kinds() []domain.StepKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.StepKind, 0, len(r.steps))
	for k := range r.steps {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Count возвращает количество зарегистрированных шагов.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}
