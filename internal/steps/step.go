package steps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/shaiso/Deployer/internal/domain"
	"github.com/shaiso/Deployer/internal/engine"
	"github.com/shaiso/Deployer/internal/progress"
)

// Ошибки шагов.
var (
	// ErrFlowExecutionFailed — шаг не может быть выполнен.
	ErrFlowExecutionFailed = errors.New("flow execution failed")

	// ErrStepNotFound — тип шага не поддерживается.
	ErrStepNotFound = errors.New("unsupported step type")

	// ErrInvalidPath — путь нельзя разделить на каталог и имя файла.
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidFilename — из пути источника нельзя получить имя файла.
	ErrInvalidFilename = errors.New("invalid filename")
)

// failed создаёт ошибку уровня flow.
func failed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFlowExecutionFailed, fmt.Sprintf(format, args...))
}

// Session — операции удалённой сессии, которые используют шаги.
// Реализуется *session.Session.
type Session interface {
	Execute(ctx context.Context, command string) (string, error)
	ExecuteStream(ctx context.Context, command string, sink progress.Sink) error
	Test(ctx context.Context, command string) (bool, error)
	TransferFile(ctx context.Context, dir, filename string, data []byte, sink progress.Sink) error
}

// Step — обработчик одного типа шага.
type Step interface {
	// Kind возвращает тип шага.
	Kind() domain.StepKind

	// Execute выполняет шаг. Сессия используется монопольно:
	// к моменту возврата все операции с ней завершены.
	Execute(ctx context.Context, req *Request) error
}

// Request — входные данные для выполнения шага.
type Request struct {
	// Index — номер шага в flow.
	Index int

	// Step — определение шага.
	Step *domain.FlowStep

	// Args — аргументы запуска flow.
	Args map[string]any

	// TemplateContext — контекст рендеринга шаблонов.
	TemplateContext *engine.Context

	// Renderer — рендеринг шаблонов. По умолчанию engine.TextRenderer.
	Renderer engine.Renderer

	Session Session
	Sink    progress.Sink

	// CacheDir — корень локального кэша пакетов.
	CacheDir string

	Logger *slog.Logger
}

// Render рендерит шаблон против контекста запроса.
func (r *Request) Render(text string) (string, error) {
	renderer := r.Renderer
	if renderer == nil {
		renderer = engine.TextRenderer{}
	}
	return renderer.Render(text, r.TemplateContext)
}

// RenderField проверяет, что поле шага задано, и рендерит его.
func (r *Request) RenderField(field string) (string, error) {
	value := r.Step.Field(field)
	if value == "" {
		return "", failed("no %s specified for step %q", field, r.Step.Label())
	}
	return r.Render(value)
}

// CachePath возвращает путь внутри кэша.
func (r *Request) CachePath(rel string) string {
	return filepath.Join(r.CacheDir, filepath.FromSlash(rel))
}

func (r *Request) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Request) sink() progress.Sink {
	return progress.OrNop(r.Sink)
}
