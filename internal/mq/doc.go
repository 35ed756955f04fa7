// Package mq рассылает события прогресса flow через RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange, очередей и привязок
//   - publisher.go  — публикация сообщений и ProgressPublisher (progress.Sink)
//   - consumer.go   — потребление сообщений (progress watch)
//
// Типы сообщений (они же routing keys):
//   - flow.step          — начат шаг flow
//   - transfer.progress  — прогресс передачи или загрузки файла
//   - command.output     — фрагмент вывода команды
//
// Exchange:
//   - deployer.progress (topic) — все события прогресса
package mq
