package mq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// ExchangeProgress — обменник событий прогресса.
const ExchangeProgress Exchange = "deployer.progress"

// QueueProgressEvents — общая очередь событий прогресса.
const QueueProgressEvents Queue = "progress.events"

// BindingAll — привязка ко всем событиям topic exchange.
const BindingAll RoutingKey = "#"

// progressTTL — время жизни события в общей очереди.
const progressTTL = time.Minute

// SetupTopology объявляет exchange, общую очередь и привязку.
// Повторный вызов безопасен.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchange(ch); err != nil {
			return err
		}

		_, err := ch.QueueDeclare(
			string(QueueProgressEvents), // name
			true,                        // durable
			false,                       // delete when unused
			false,                       // exclusive
			false,                       // no-wait
			amqp.Table{"x-message-ttl": progressTTL.Milliseconds()},
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueProgressEvents, err)
		}

		return bind(ch, QueueProgressEvents)
	})
}

// DeclareWatchQueue создаёт временную эксклюзивную очередь,
// привязанную ко всем событиям. Очередь удаляется вместе с соединением.
func DeclareWatchQueue(ctx context.Context, conn *Connection) (Queue, error) {
	var name Queue
	err := conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchange(ch); err != nil {
			return err
		}

		q, err := ch.QueueDeclare("", false, true, true, false, nil)
		if err != nil {
			return fmt.Errorf("declare watch queue: %w", err)
		}
		name = Queue(q.Name)

		return bind(ch, name)
	})
	return name, err
}

func declareExchange(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		string(ExchangeProgress), // name
		amqp.ExchangeTopic,       // type
		true,                     // durable
		false,                    // auto-deleted
		false,                    // internal
		false,                    // no-wait
		nil,                      // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeProgress, err)
	}
	return nil
}

func bind(ch *amqp.Channel, queue Queue) error {
	if err := ch.QueueBind(string(queue), string(BindingAll), string(ExchangeProgress), false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", queue, ExchangeProgress, err)
	}
	return nil
}
