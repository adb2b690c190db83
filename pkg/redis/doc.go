// Package redis provides helpers for connecting to a Redis server.
//
// The package wraps the go-redis client and adds a Connect function that
// retries the connection using the supplied configuration, plus a
// health-check helper for liveness and readiness probes.
//
// Configuration is described by the Config struct whose fields are populated
// from environment variables via github.com/caarlos0/env.
//
// Usage:
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    // handle error, probably terminate the application
//	}
//	defer client.Close()
//
//	checker := redis.Healthcheck(client)
//	if err := checker(ctx); err != nil {
//	    // redis is not healthy
//	}
//
// Sentinel errors such as ErrRedisNotReady wrap the underlying go-redis
// errors using errors.Join, making them easy to compare and unwrap.
package redis
