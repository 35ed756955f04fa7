// Package orchestrator выполняет flow против одной удалённой сессии.
//
// Engine отвечает за:
//   - Поиск flow в каталоге
//   - Построение контекста шаблонов (ОС хоста, настройки, аргументы)
//   - Последовательный обход шагов с уведомлением о текущем шаге
//   - Проверку условий шагов на удалённом хосте
//   - Передачу шага обработчику из steps.Registry
//   - Историю запусков и метрики
//
// Шаги выполняются строго по порядку, без параллелизма и повторов.
// Первая ошибка прерывает запуск; изменения уже выполненных шагов
// на хосте не откатываются.
package orchestrator
