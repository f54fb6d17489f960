package main

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

type Rabbit struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewRabbit(cfg Config) (*Rabbit, error) {
	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil { return nil, err }
	ch, err := conn.Channel()
	if err != nil { conn.Close(); return nil, err }

	r := &Rabbit{conn: conn, ch: ch, exchange: cfg.RabbitExchange}
	if err := ch.ExchangeDeclare(cfg.RabbitExchange, "topic", true, false, false, false, nil); err != nil {
		r.Close()
		return nil, err
	}
	qNames := []string{cfg.QPlaceReq, cfg.QOrderReq, cfg.QOrderRes, cfg.QFulfilReq, cfg.QFulfilRes}
	for _, q := range qNames {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			r.Close()
			return nil, err
		}
	}
	return r, nil
}

func (r *Rabbit) Close() {
	if r.ch != nil { _ = r.ch.Close() }
	if r.conn != nil { _ = r.conn.Close() }
}

// PublishJSON publishes a domain event on the topic exchange.
func (r *Rabbit) PublishJSON(routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil { return err }
	return r.ch.PublishWithContext(context.Background(), r.exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// PublishQueue sends a message straight to a work queue.
func (r *Rabbit) PublishQueue(queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil { return err }
	return r.ch.PublishWithContext(context.Background(), "", queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// Consume feeds every message on the queue to the handler, acking after each
// one. The loop ends when the channel closes.
func (r *Rabbit) Consume(queue, consumer string, handler func(body []byte)) error {
	msgs, err := r.ch.Consume(queue, consumer, false, false, false, false, nil)
	if err != nil { return err }

	go func() {
		for m := range msgs {
			handler(m.Body)
			_ = m.Ack(false)
		}
		log.Info().Str("queue", queue).Msg("consumer stopped")
	}()
	return nil
}
