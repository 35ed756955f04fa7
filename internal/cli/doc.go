// Package cli реализует команды deployer.
//
// # Обзор
//
// CLI запускает flows на удалённых хостах и даёт доступ к вспомогательным
// операциям: проверка соединения, выполнение команды, работа с пакетами
// в локальном кэше, история запусков и поток событий прогресса.
//
// # Ключевые компоненты
//
// ## App
//
// Общее состояние команд. Глобальные флаги (--config, --json, --log-level)
// разбираются корневой командой, после чего App загружает конфигурацию
// (config.Load) и создаёт логгер. Из конфигурации App собирает зависимости
// по требованию: SSH-сессию, каталог flows, resolver пакетов, реестр шагов,
// историю запусков.
//
// Необязательные подсистемы включаются ключами конфигурации:
//   - db_url — история запусков в PostgreSQL
//   - rabbitmq_url — публикация прогресса в RabbitMQ
//   - metrics_addr — /metrics и /healthz на время flow run
//   - local_package_dir — пакеты из офлайн-каталога вместо сервера пакетов
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения и прогресс — в stderr.
// Это позволяет использовать pipe: deployer flow list --json | jq .
//
// ## Commands
//
//   - connection test
//   - exec
//   - flow: list, show, run
//   - package: fetch, import, extract
//   - run: list, show
//   - progress watch
//   - serve — status API (пакет api) и /metrics
package cli
