// Package notify tells customers and downstream consumers about completed
// orders.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/pkg/logging"
	"github.com/Skotchmaster/pcshop/pkg/metrics"
)

const (
	OrderSubject   = "Your order in WHYNOTPC shop"
	EventCompleted = "order_completed"
)

type MailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// OrderNotifier mails the order confirmation and publishes an
// order_completed event. Either channel may be nil. Failures are logged and
// counted, never returned.
type OrderNotifier struct {
	Mail    MailSender
	Events  EventPublisher
	Topic   string
	Metrics *metrics.Metrics
}

type OrderLine struct {
	ProductID uint   `json:"product_id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	LineTotal string `json:"line_total"`
}

type OrderCompletedEvent struct {
	Type        string      `json:"type"`
	OrderID     uint        `json:"order_id"`
	UserID      uint        `json:"user_id"`
	Email       string      `json:"email"`
	Total       string      `json:"total"`
	Items       []OrderLine `json:"items"`
	CompletedAt time.Time   `json:"completed_at"`
}

var orderMail = template.Must(template.New("order").Parse(`<html><body>
<h2>Thank you for your order, {{.Name}}!</h2>
<p>Order #{{.Event.OrderID}}</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Product</th><th>Quantity</th><th>Price</th><th>Sum</th></tr>
{{range .Event.Items}}<tr><td>{{.Title}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td><td>{{.LineTotal}}</td></tr>
{{end}}</table>
<p><b>Total: {{.Event.Total}}</b></p>
</body></html>`))

func NewOrderCompletedEvent(user *models.User, order *models.Order, at time.Time) OrderCompletedEvent {
	ev := OrderCompletedEvent{
		Type:        EventCompleted,
		OrderID:     order.ID,
		UserID:      user.ID,
		Email:       user.Email,
		Total:       order.Total.StringFixed(2),
		Items:       make([]OrderLine, 0, len(order.Items)),
		CompletedAt: at.UTC(),
	}
	for _, it := range order.Items {
		line := OrderLine{ProductID: it.ProductID, Quantity: it.Quantity, LineTotal: it.LineTotal().StringFixed(2)}
		if it.Product != nil {
			line.Title = it.Product.Title
			line.Price = it.Product.Price.StringFixed(2)
		}
		ev.Items = append(ev.Items, line)
	}
	return ev
}

func RenderOrderMail(user *models.User, ev OrderCompletedEvent) (string, error) {
	var buf bytes.Buffer
	err := orderMail.Execute(&buf, struct {
		Name  string
		Event OrderCompletedEvent
	}{Name: user.Firstname, Event: ev})
	if err != nil {
		return "", fmt.Errorf("render order mail: %w", err)
	}
	return buf.String(), nil
}

func (n *OrderNotifier) OrderCompleted(ctx context.Context, user *models.User, order *models.Order) {
	l := logging.FromContext(ctx).With("svc", "notify.order_completed", "order_id", order.ID, "user_id", user.ID)
	ev := NewOrderCompletedEvent(user, order, time.Now())

	if n.Mail != nil {
		html, err := RenderOrderMail(user, ev)
		if err == nil {
			err = n.Mail.Send(ctx, user.Email, OrderSubject, html)
		}
		n.record("mail", err)
		if err != nil {
			l.Error("order_mail_failed", "error", err)
		} else {
			l.Info("order_mail_sent")
		}
	}

	if n.Events != nil {
		err := n.Events.PublishEvent(ctx, n.Topic, fmt.Sprint(order.ID), ev)
		n.record("kafka", err)
		if err != nil {
			l.Error("order_event_failed", "topic", n.Topic, "error", err)
		} else {
			l.Info("order_event_published", "topic", n.Topic)
		}
	}
}

func (n *OrderNotifier) record(channel string, err error) {
	if n.Metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	n.Metrics.Notifications.WithLabelValues(channel, result).Inc()
}
