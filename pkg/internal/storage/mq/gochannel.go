package mq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/imap-mag/magvault/pkg/configs"
)

func init() {
	RegisterFactory(configs.MQTypeGoChannel, gochannelFactory)
}

// gochannelFactory creates an in-process pub/sub pair. The publisher and
// subscriber are the same object, so messages never leave the process; this
// backend suits single node deployments and tests.
func gochannelFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	ps := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: int64(cfg.Common.BufferSize),
			Persistent:          false,
		},
		logger,
	)

	return ps, ps, nil
}
