package broker

import (
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestDeleteError(t *testing.T) {
	assert.NoError(t, deleteError("chat_messages", &amqp.Error{Code: amqp.NotFound, Reason: "NOT_FOUND - no queue 'chat_messages'"}))

	err := deleteError("chat_messages", &amqp.Error{Code: amqp.PreconditionFailed, Reason: "PRECONDITION_FAILED - queue in use"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorContains(t, err, "chat_messages")

	err = deleteError("chat_messages", amqp.ErrClosed)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, errors.Is(err, ErrUnroutable))
}
