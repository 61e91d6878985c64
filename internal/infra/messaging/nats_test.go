package messaging

import (
	"context"
	"testing"

	"github.com/daffahilmyf/users-api/internal/config"
	"github.com/daffahilmyf/users-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNATSDisabledWithoutURL(t *testing.T) {
	client, err := NewNATS(context.Background(), config.NATS{})
	require.NoError(t, err)
	assert.Nil(t, client)

	assert.NoError(t, client.PublishUserEvent(context.Background(), entity.UserEvent{Type: entity.EventUserCreated}))
	assert.NoError(t, client.Publish(context.Background(), "user.created", nil, ""))
	assert.Nil(t, client.JetStream())
	client.Close()
}

func TestNewNATSRequiresStream(t *testing.T) {
	_, err := NewNATS(context.Background(), config.NATS{URL: "nats://127.0.0.1:4222"})
	require.Error(t, err)
}

func TestPublishWithoutJetStream(t *testing.T) {
	client := &NATSClient{}
	assert.Error(t, client.Publish(context.Background(), "user.created", []byte("{}"), "id"))
}
