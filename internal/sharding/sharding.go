package sharding

import "github.com/cespare/xxhash/v2"

type ShardRouter struct {
	ShardCount int // Number of shards
}

func NewShardRouter(shardCount int) *ShardRouter {
	if shardCount < 1 {
		shardCount = 1
	}
	return &ShardRouter{ShardCount: shardCount}
}

// GetShard hashes the key and returns the shard index
func (r *ShardRouter) GetShard(key string) int {
	return int(xxhash.Sum64String(key) % uint64(r.ShardCount))
}
