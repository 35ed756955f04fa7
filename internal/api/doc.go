// Package api содержит HTTP API только для чтения: каталог flows
// и история запусков.
//
// Структура:
//   - handler.go      — Handler с зависимостями (каталог, история, logger)
//   - routes.go       — регистрация маршрутов
//   - middleware.go   — middleware (logging, recovery)
//   - response.go     — унифицированные JSON-ответы и обработка ошибок
//   - dto.go          — Data Transfer Objects
//   - flow_handler.go — обработчики для /flows
//   - run_handler.go  — обработчики для /runs
//
// Запуск flows через API не поддерживается: flow выполняется командой
// deployer flow run, которая монопольно владеет SSH-сессией.
package api
