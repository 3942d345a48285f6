package main

import (
	"fmt"

	"github.com/aretw0/guiapi"
	"github.com/aretw0/guiapi/internal/adapters/file"
	"github.com/aretw0/guiapi/internal/adapters/memory"
	"github.com/aretw0/guiapi/internal/adapters/redis"
	"github.com/aretw0/guiapi/internal/config"
	"github.com/aretw0/guiapi/pkg/ports"
	"github.com/aretw0/guiapi/pkg/session"
)

// openSessions builds the page store selected by the config. The returned
// closer releases store connections.
func openSessions(c config.Config) (*session.Manager, func() error, error) {
	opts := []session.Option{session.WithLogger(logger), session.WithLockTTL(c.Store.LockTTL)}
	closer := func() error { return nil }

	var store ports.PageStore
	switch c.Store.Driver {
	case config.StoreMemory:
		store = memory.New()
	case config.StoreFile:
		store = file.New(c.Store.Path)
	case config.StoreRedis:
		var redisOpts []redis.Option
		prefix := redis.DefaultPrefix
		if c.Store.Prefix != "" {
			prefix = c.Store.Prefix
			redisOpts = append(redisOpts, redis.WithPrefix(prefix))
		}
		if c.Store.TTL > 0 {
			redisOpts = append(redisOpts, redis.WithTTL(c.Store.TTL))
		}
		rs := redis.New(c.Store.Addr, c.Store.Password, c.Store.DB, redisOpts...)
		store = rs
		closer = rs.Close
		opts = append(opts, session.WithLocker(redis.NewLocker(rs.Client(), prefix)))
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	logger.Debug("Page store opened", "driver", c.Store.Driver)
	return session.NewManager(store, opts...), closer, nil
}

// clientOptions maps the config onto client options.
func clientOptions(c config.Config) []guiapi.Option {
	opts := []guiapi.Option{
		guiapi.WithLogger(logger),
		guiapi.WithTimeout(c.Timeout),
		guiapi.WithOrderPolicy(c.OrderPolicy()),
		guiapi.WithContentPolicy(c.ContentPolicy()),
	}
	if c.Correlation {
		opts = append(opts, guiapi.WithCorrelation())
	}
	return opts
}
