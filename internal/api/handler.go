package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Deployer/internal/domain"
	"github.com/shaiso/Deployer/internal/engine"
	"github.com/shaiso/Deployer/internal/repo"
)

// RunReader — чтение истории запусков. Реализуется repo.RunRepo.
type RunReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	List(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	catalog *engine.Catalog
	runs    RunReader
	logger  *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Catalog *engine.Catalog

	// Runs — история запусков. nil — /runs отвечает 503.
	Runs RunReader

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog, _ = engine.NewCatalog()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		catalog: catalog,
		runs:    cfg.Runs,
		logger:  logger,
	}
}
