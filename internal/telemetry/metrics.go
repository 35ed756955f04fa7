package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы выполнения шага для StepsTotal.
const (
	OutcomeExecuted = "executed"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

var (
	// FlowRunsTotal — количество завершённых запусков flow по статусу.
	FlowRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deployer_flow_runs_total",
		Help: "Total number of finished flow runs",
	}, []string{"flow", "status"})

	// StepsTotal — количество шагов по типу и исходу.
	StepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deployer_steps_total",
		Help: "Total number of flow steps by kind and outcome",
	}, []string{"kind", "outcome"})

	// StepDuration — длительность выполнения шага.
	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deployer_step_duration_seconds",
		Help:    "Flow step execution duration",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	}, []string{"kind"})

	// TransferredBytes — байты, записанные в удалённые файлы.
	TransferredBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deployer_transferred_bytes_total",
		Help: "Total bytes written to remote files",
	})

	// DownloadedBytes — байты, загруженные с сервера пакетов.
	DownloadedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deployer_downloaded_bytes_total",
		Help: "Total bytes downloaded from the package server",
	})

	// HTTPRequestsTotal — запросы к API по маршруту и коду ответа.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deployer_http_requests_total",
		Help: "Total number of status API requests",
	}, []string{"route", "status"})
)
