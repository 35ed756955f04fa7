// Package engine содержит модель загрузки и рендеринга flow.
//
// Включает:
//   - parser.go   — разбор и валидация документов flow (JSON)
//   - catalog.go  — Source (откуда читать документы) и неизменяемый Catalog
//   - template.go — рендеринг Go templates ({{ .Args.x }}, {{ .OS }})
//
// Выполнение шагов — в пакете orchestrator.
package engine
