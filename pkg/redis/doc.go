// Package redis connects to Redis with go-redis/v9 and exposes a readiness
// probe for the connection. The entitlement Redis store receives the client
// returned by Connect.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := redisstore.New(client, redisstore.WithKeyPrefix(cfg.KeyPrefix))
package redis
