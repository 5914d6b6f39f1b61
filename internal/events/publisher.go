package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/baharkarakas/points-ledger/internal/models"
	"github.com/baharkarakas/points-ledger/internal/worker"
)

// Publisher emits accepted mutations to an AMQP topic exchange so
// downstream consumers (reporting, sync jobs) can follow the ledger
// without polling it. Publishing is fire-and-forget via the worker
// pool; a broker hiccup never affects the ledger.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	wp       *worker.Pool
}

type mutationEvent struct {
	EntryID   int64  `json:"entry_id"`
	UserID    string `json:"user_id"`
	Amount    int64  `json:"amount"`
	Kind      string `json:"kind"`
	Balance   int64  `json:"balance"`
	Timestamp string `json:"timestamp"`
}

func New(url, exchange string, wp *worker.Pool) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange, wp: wp}, nil
}

func (p *Publisher) Record(entry models.HistoryEntry, balance models.UserBalance) {
	p.wp.Submit(func() {
		body, err := json.Marshal(mutationEvent{
			EntryID:   entry.ID,
			UserID:    entry.UserID,
			Amount:    entry.Amount,
			Kind:      string(entry.Kind),
			Balance:   balance.Balance,
			Timestamp: entry.Timestamp.Format(time.RFC3339Nano),
		})
		if err != nil {
			slog.Error("event marshal", "err", err, "entry_id", entry.ID)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		key := "point." + strings.ToLower(string(entry.Kind))
		err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
			ContentType: "application/json",
			MessageId:   strconv.FormatInt(entry.ID, 10),
			Timestamp:   entry.Timestamp,
			Body:        body,
		})
		if err != nil {
			slog.Error("event publish", "err", err, "entry_id", entry.ID)
		}
	})
}

func (p *Publisher) Close() {
	_ = p.ch.Close()
	_ = p.conn.Close()
}
