package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/inkfeed/inkfeed/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo opens a connection and returns the client. Caller should call
// client.Disconnect(ctx). Retries with exponential backoff to tolerate
// startup races against the database container.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	var client *mongo.Client

	connect := func() error {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		c, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
		if err != nil {
			return fmt.Errorf("mongo connect: %w", err)
		}
		if err := c.Ping(cctx, nil); err != nil {
			_ = c.Disconnect(cctx)
			return fmt.Errorf("mongo ping: %w", err)
		}
		client = c
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4)
	if err := backoff.RetryNotify(connect, backoff.WithContext(bo, ctx), func(err error, next time.Duration) {
		logger.Warnf("mongo connection failed, retrying in %s: %v", next, err)
	}); err != nil {
		return nil, err
	}
	return client, nil
}
