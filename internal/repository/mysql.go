package repository

import (
	"context"
	"database/sql"
	"errors"

	"cart-service/internal/sharding"
)

// MySQLStore keeps values in the cart_kv table, spread over shards by key hash.
type MySQLStore struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewMySQLStore(dbShards []*sql.DB, router *sharding.ShardRouter) *MySQLStore {
	return &MySQLStore{dbShards, router}
}

func (s *MySQLStore) shard(key string) *sql.DB {
	return s.dbShards[s.router.GetShard(key)]
}

func (s *MySQLStore) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT v FROM cart_kv WHERE k = ?`

	var value string
	err := s.shard(key).QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *MySQLStore) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO cart_kv (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)`
	_, err := s.shard(key).ExecContext(ctx, query, key, value)
	return err
}

func (s *MySQLStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM cart_kv WHERE k = ?`
	_, err := s.shard(key).ExecContext(ctx, query, key)
	return err
}
