// Package rmqgath publishes run events to a queue on the grading broker.
package rmqgath

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/klauspost/compress/snappy"
	"github.com/programme-lv/amqp-grader/api"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ContentType     = "application/json"
	ContentEncoding = "snappy"

	publishTimeout = 10 * time.Second
)

// Publisher is satisfied by *amqp.Channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Gatherer struct {
	publisher Publisher
	replyTo   string

	mu      sync.Mutex
	runUuid string
}

func New(publisher Publisher, replyTo string) *Gatherer {
	return &Gatherer{publisher: publisher, replyTo: replyTo}
}

// Dial connects to url and declares the durable replyTo queue. The returned
// func closes the connection.
func Dial(url string, replyTo string) (*Gatherer, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to results broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(replyTo, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare queue %s: %w", replyTo, err)
	}
	closer := func() {
		ch.Close()
		conn.Close()
	}
	return New(ch, replyTo), closer, nil
}

func (r *Gatherer) StartGrading(runUuid string, exercise string) {
	r.mu.Lock()
	r.runUuid = runUuid
	r.mu.Unlock()
	r.sendEvalResponse(api.StartGradingMsg, api.NewStartGrading(runUuid, exercise))
}

func (r *Gatherer) FinishPart(part api.PartResult) {
	r.sendEvalResponse(api.FinishPartMsg, api.NewFinishPart(r.run(), part))
}

func (r *Gatherer) FinishGrading(grade float64, maxGrade float64) {
	r.sendEvalResponse(api.FinishGradingMsg, api.NewFinishGrading(r.run(), grade, maxGrade, nil))
}

func (r *Gatherer) InternalError(msg string) {
	r.sendEvalResponse(api.FinishGradingMsg, api.NewFinishGrading(r.run(), 0, 0, &msg))
}

func (r *Gatherer) run() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runUuid
}

func (r *Gatherer) sendEvalResponse(msgType api.MsgType, m any) {
	marshalled, err := json.Marshal(m)
	if err != nil {
		slog.Error("failed to marshal message", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = r.publisher.PublishWithContext(ctx, "", r.replyTo, false, false, amqp.Publishing{
		ContentType:     ContentType,
		ContentEncoding: ContentEncoding,
		DeliveryMode:    amqp.Persistent,
		Type:            string(msgType),
		CorrelationId:   r.run(),
		Timestamp:       time.Now(),
		Body:            snappy.Encode(nil, marshalled),
	})
	if err != nil {
		slog.Warn("failed to publish message to results queue", "queue", r.replyTo, "err", err)
	}
}
