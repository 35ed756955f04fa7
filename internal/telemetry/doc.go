// Package telemetry обеспечивает наблюдаемость deployer.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики запусков flow и передачи файлов
//
// Логи пишутся в stderr: stdout занят выводом удалённых команд
// и данными в формате --json.
package telemetry
