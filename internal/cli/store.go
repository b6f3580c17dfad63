package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erdraw/pkg/layoutfile"
)

// storeOpts selects where layouts are kept. Without a Redis address layouts
// live next to their schema files.
type storeOpts struct {
	redisAddr     string
	redisPassword string
	redisDB       int
	redisPrefix   string
	redisTTL      time.Duration
}

func (o *storeOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.redisAddr, "redis", "", "keep layouts in Redis at host:port")
	cmd.Flags().StringVar(&o.redisPassword, "redis-password", "", "Redis password")
	cmd.Flags().IntVar(&o.redisDB, "redis-db", 0, "Redis database number")
	cmd.Flags().StringVar(&o.redisPrefix, "redis-prefix", layoutfile.DefaultRedisPrefix, "Redis key prefix")
	cmd.Flags().DurationVar(&o.redisTTL, "redis-ttl", 0, "expire stored layouts after this long (0 keeps them)")
}

// open returns the configured store, or nil for the default file store.
func (o *storeOpts) open(ctx context.Context) (layoutfile.Store, error) {
	if o.redisAddr == "" {
		return nil, nil
	}
	return layoutfile.NewRedisStore(ctx, layoutfile.RedisConfig{
		Addr:     o.redisAddr,
		Password: o.redisPassword,
		DB:       o.redisDB,
		Prefix:   o.redisPrefix,
		TTL:      o.redisTTL,
	})
}
