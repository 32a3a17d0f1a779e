package kafka

import (
	"context"
	"testing"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/questx-lab/prizeengine/pkg/pubsub"
	"github.com/stretchr/testify/require"
)

func TestPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		require.Equal(t, `{"id":"t1"}`, string(val))
		return nil
	})

	p := &publisher{producer: producer}
	err := p.Publish(context.Background(), "token", &pubsub.Pack{
		Key: []byte("t1"),
		Msg: []byte(`{"id":"t1"}`),
	})
	require.NoError(t, err)
	require.NoError(t, p.Stop(context.Background()))
}

func TestPublisher_PublishFailed(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := &publisher{producer: producer}
	err := p.Publish(context.Background(), "token", &pubsub.Pack{Msg: []byte("{}")})
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
}
