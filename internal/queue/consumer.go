package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-reservation/internal/pkg/logger"
)

const auditFileName = "reservations.log"

// errMalformed marks messages that will never succeed and must not be requeued.
var errMalformed = errors.New("malformed message")

// AuditConsumer appends every reservation event to <dir>/reservations.log.
type AuditConsumer struct {
	url   string
	queue string
	dir   string
}

func NewAuditConsumer(url, queue, dir string) *AuditConsumer {
	return &AuditConsumer{url: url, queue: queue, dir: dir}
}

// Run connects, consumes and reconnects with backoff until ctx is done.
func (c *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			logger.Warn("audit consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("audit consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("audit consumer: set QoS failed", zap.Error(err))
	}
	if err := declare(ch, c.queue); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.handle(d.Body); err != nil {
			logger.Error("audit consumer: handle message failed", zap.Error(err))
			// write failures are retried, broken payloads are dropped
			_ = d.Nack(false, !errors.Is(err, errMalformed))
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *AuditConsumer) handle(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, auditFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func formatLine(ev ReservationEvent) string {
	ids := make([]string, len(ev.SeatIDs))
	for i, id := range ev.SeatIDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("[%s] %s | reservation_id=%d | client_id=%d | event_id=%d | event=%q | category_id=%d | total=%d cents | seats=[%s]\n",
		ev.OccurredAt.Format(time.RFC3339), ev.Type, ev.ReservationID, ev.ClientID, ev.EventID,
		ev.EventName, ev.CategoryID, ev.TotalCents, strings.Join(ids, ","))
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
