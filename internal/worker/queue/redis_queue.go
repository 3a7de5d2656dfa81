package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultName es la lista de Redis compartida por API y worker.
const DefaultName = "subburn:jobs"

// RedisQueue es una cola FIFO de job ids. Cada id sacado queda en una lista
// de procesamiento hasta que el worker lo confirma con Ack; si el worker
// muere antes, Recover lo devuelve a la cola.
type RedisQueue struct {
	rdb        *redis.Client
	name       string
	processing string
}

func NewRedisQueue(rdb *redis.Client, name string) *RedisQueue {
	if name == "" {
		name = DefaultName
	}
	return &RedisQueue{rdb: rdb, name: name, processing: name + ":processing"}
}

func (q *RedisQueue) Name() string { return q.name }

// Push agrega el job por la izquierda; Pop lo toma por la derecha.
func (q *RedisQueue) Push(ctx context.Context, jobID string) error {
	return q.rdb.LPush(ctx, q.name, jobID).Err()
}

// Pop espera hasta timeout por un job y lo mueve a la lista de
// procesamiento. Sin jobs retorna "" y nil.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	jobID, err := q.rdb.BLMove(ctx, q.name, q.processing, "RIGHT", "LEFT", timeout).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return jobID, nil
}

// Ack saca el job de la lista de procesamiento.
func (q *RedisQueue) Ack(ctx context.Context, jobID string) error {
	return q.rdb.LRem(ctx, q.processing, 1, jobID).Err()
}

// Recover devuelve a la cola lo que quedó en procesamiento, en el orden en
// que se había sacado. Solo es seguro con un único worker por cola.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	n := 0
	for {
		_, err := q.rdb.LMove(ctx, q.processing, q.name, "LEFT", "RIGHT").Result()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

// Len cuenta los jobs pendientes, sin los que están en proceso.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.name).Result()
}
