package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/luminis-shop/luminis-api/internal/kafka"
	"github.com/luminis-shop/luminis-api/internal/mail"
	"github.com/luminis-shop/luminis-api/internal/orders"
	"github.com/luminis-shop/luminis-api/internal/redisx"
)

// Service turns OrderCreated events into notification emails for the shop.
type Service struct {
	Redis  *redis.Client
	Sender mail.Sender
	Log    *zap.Logger
}

// HandleOrderCreated is wired as the consumer handler. Returning an error
// leaves the offset uncommitted so the event is retried.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	// Dedup by event id so a redelivered event does not mail twice.
	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	if err := s.Sender.Send("New Order Received", FormatOrderEmail(p)); err != nil {
		s.Log.Error("send order mail failed",
			zap.Int64("order_id", p.OrderID), zap.Error(err))
		return err
	}

	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	s.Log.Info("order mail sent", zap.Int64("order_id", p.OrderID))
	return nil
}

// FormatOrderEmail renders the plain-text order summary the shop receives.
func FormatOrderEmail(p orders.OrderCreatedPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New Order Received!\n\n")
	fmt.Fprintf(&b, "Order: #%d\n", p.OrderID)
	fmt.Fprintf(&b, "Name: %s %s\n", p.FirstName, p.LastName)
	fmt.Fprintf(&b, "Phone: %s\n", p.Phone)
	fmt.Fprintf(&b, "Address: %s, %s\n", p.Address, p.City)
	note := p.Note
	if note == "" {
		note = "None"
	}
	fmt.Fprintf(&b, "Note: %s\n", note)
	b.WriteString("\nOrder Details:\n")
	for _, it := range p.Items {
		fmt.Fprintf(&b, "Product: %s, Quantity: %d, Price: %.2f BGN\n", it.Name, it.Quantity, it.Price)
	}
	fmt.Fprintf(&b, "\nTotal: %.2f BGN\n", p.Total)
	return b.String()
}
