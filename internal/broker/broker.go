// Package broker talks to the message broker on behalf of the grader. Every
// operation opens its own connection and closes it before returning.
package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	// ErrUnavailable is wrapped when the broker cannot be reached.
	ErrUnavailable = errors.New("broker unavailable")
	// ErrUnroutable is wrapped when a mandatory message had no queue to go to.
	ErrUnroutable = errors.New("message returned as unroutable")
)

const dialTimeout = 5 * time.Second

type QueueMessage struct {
	Body        []byte
	ContentType string
	Persistent  bool
	Mandatory   bool
}

// TextMessages produces n persistent mandatory text messages with bodies
// prefix-0 .. prefix-(n-1).
func TextMessages(prefix string, n int) []QueueMessage {
	msgs := make([]QueueMessage, 0, n)
	for i := range n {
		msgs = append(msgs, QueueMessage{
			Body:        []byte(prefix + "-" + strconv.Itoa(i)),
			ContentType: "text/plain",
			Persistent:  true,
			Mandatory:   true,
		})
	}
	return msgs
}

func Bodies(msgs []QueueMessage) []string {
	res := make([]string, len(msgs))
	for i, m := range msgs {
		res[i] = string(m.Body)
	}
	return res
}

type Client struct {
	URL string
}

func NewClient(url string) *Client {
	return &Client{URL: url}
}

// Port is the TCP port the broker listens on, as passed to submissions.
func Port(url string) (int, error) {
	uri, err := amqp.ParseURI(url)
	if err != nil {
		return 0, fmt.Errorf("failed to parse broker url: %w", err)
	}
	return uri.Port, nil
}

func (p *Client) open() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("%w: failed to open channel: %v", ErrUnavailable, err)
	}
	return conn, ch, nil
}

func closeAll(conn *amqp.Connection, ch *amqp.Channel) {
	if !ch.IsClosed() {
		ch.Close()
	}
	if !conn.IsClosed() {
		conn.Close()
	}
}

func (p *Client) Ping(ctx context.Context) error {
	conn, ch, err := p.open()
	if err != nil {
		return err
	}
	closeAll(conn, ch)
	return nil
}

// DeleteQueue removes the queue with its contents. A missing queue is fine.
func (p *Client) DeleteQueue(ctx context.Context, name string) error {
	conn, ch, err := p.open()
	if err != nil {
		return err
	}
	defer closeAll(conn, ch)

	purged, err := ch.QueueDelete(name, false, false, false)
	if err != nil {
		return deleteError(name, err)
	}
	slog.Debug("queue deleted", "queue", name, "messages", purged)
	return nil
}

// deleteError maps a failed queue.delete. NotFound means there was nothing
// to reset; everything else is an unusable broker.
func deleteError(name string, err error) error {
	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) && amqpErr.Code == amqp.NotFound {
		return nil
	}
	return fmt.Errorf("%w: failed to delete queue %s: %v", ErrUnavailable, name, err)
}

// QueueExists does a passive declare. Any failure counts as absent.
func (p *Client) QueueExists(ctx context.Context, name string) bool {
	conn, ch, err := p.open()
	if err != nil {
		slog.Warn("cannot check queue", "queue", name, "err", err)
		return false
	}
	defer closeAll(conn, ch)

	_, err = ch.QueueDeclarePassive(name, true, false, false, false, nil)
	return err == nil
}

// Publish sends msgs in order to the default exchange with routing key name
// and waits for the broker to confirm each one.
func (p *Client) Publish(ctx context.Context, name string, msgs []QueueMessage) error {
	conn, ch, err := p.open()
	if err != nil {
		return err
	}
	defer closeAll(conn, ch)

	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	returns := ch.NotifyReturn(make(chan amqp.Return, len(msgs)))

	confirms := make([]*amqp.DeferredConfirmation, 0, len(msgs))
	for _, m := range msgs {
		pub := amqp.Publishing{
			ContentType: m.ContentType,
			Body:        m.Body,
			Timestamp:   time.Now(),
		}
		if m.Persistent {
			pub.DeliveryMode = amqp.Persistent
		}
		dc, err := ch.PublishWithDeferredConfirmWithContext(ctx, "", name, m.Mandatory, false, pub)
		if err != nil {
			return fmt.Errorf("failed to publish to %s: %w", name, err)
		}
		confirms = append(confirms, dc)
	}

	for _, dc := range confirms {
		acked, err := dc.WaitContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to wait for publish confirm: %w", err)
		}
		if !acked {
			return fmt.Errorf("broker nacked message %d on %s", dc.DeliveryTag, name)
		}
	}

	select {
	case r := <-returns:
		return fmt.Errorf("%w: %s to %s (%d %s)", ErrUnroutable, string(r.Body), name, r.ReplyCode, r.ReplyText)
	default:
	}

	slog.Debug("published messages", "queue", name, "count", len(msgs))
	return nil
}
