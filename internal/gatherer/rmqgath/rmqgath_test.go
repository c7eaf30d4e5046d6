package rmqgath_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/klauspost/compress/snappy"
	"github.com/programme-lv/amqp-grader/api"
	"github.com/programme-lv/amqp-grader/internal/gatherer/rmqgath"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	key string
	msg amqp.Publishing
}

type recorder struct {
	sent []published
	err  error
}

func (r *recorder) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	r.sent = append(r.sent, published{key: key, msg: msg})
	return r.err
}

func decode(t *testing.T, p published, v any) {
	raw, err := snappy.Decode(nil, p.msg.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestPublishesToReplyQueue(t *testing.T) {
	rec := &recorder{}
	g := rmqgath.New(rec, "grading_results")

	g.StartGrading("run-3", "jdoe/amqp_training")
	g.FinishPart(api.PartResult{Name: "Part 1 - Compilation & Tests", Grade: 1, MaxGrade: 2,
		Explanations: []string{"There are test failures, see `mvn verify`"}})
	g.FinishGrading(1, 2)
	require.Len(t, rec.sent, 3)

	for _, p := range rec.sent {
		assert.Equal(t, "grading_results", p.key)
		assert.Equal(t, "run-3", p.msg.CorrelationId)
		assert.Equal(t, rmqgath.ContentEncoding, p.msg.ContentEncoding)
		assert.Equal(t, amqp.Persistent, p.msg.DeliveryMode)
	}
	assert.Equal(t, string(api.FinishPartMsg), rec.sent[1].msg.Type)

	var part api.FinishPart
	decode(t, rec.sent[1], &part)
	assert.Equal(t, 1.0, part.Part.Grade)
	assert.Equal(t, []string{"There are test failures, see `mvn verify`"}, part.Part.Explanations)

	var finish api.FinishGrading
	decode(t, rec.sent[2], &finish)
	assert.Equal(t, 2.0, finish.MaxGrade)
	assert.Nil(t, finish.ErrorMessage)
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	rec := &recorder{err: errors.New("channel/connection is not open")}
	g := rmqgath.New(rec, "grading_results")

	g.InternalError("broker unavailable")
	require.Len(t, rec.sent, 1)

	var finish api.FinishGrading
	decode(t, rec.sent[0], &finish)
	require.NotNil(t, finish.ErrorMessage)
	assert.Equal(t, "broker unavailable", *finish.ErrorMessage)
}
