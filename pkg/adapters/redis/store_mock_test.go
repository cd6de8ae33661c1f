package redis_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_BackendErrors(t *testing.T) {
	ctx := context.Background()
	errDown := errors.New("connection refused")

	t.Run("Load surfaces non-nil errors", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		store := redis.NewFromClient(client)

		mock.ExpectGet(redis.DefaultPrefix + "conversation:c1").SetErr(errDown)

		_, err := store.Load(ctx, "c1")
		require.Error(t, err)
		assert.ErrorIs(t, err, errDown)
		assert.NotErrorIs(t, err, domain.ErrConversationNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Load maps nil to not found", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		store := redis.NewFromClient(client, redis.WithPrefix("custom:"))

		mock.ExpectGet("custom:conversation:c1").RedisNil()

		_, err := store.Load(ctx, "c1")
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Load rejects corrupt payloads", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		store := redis.NewFromClient(client)

		mock.ExpectGet(redis.DefaultPrefix + "conversation:c1").SetVal("{not json")

		_, err := store.Load(ctx, "c1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unmarshal")
	})

	t.Run("Ping", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		store := redis.NewFromClient(client)

		mock.ExpectPing().SetErr(errDown)
		assert.ErrorIs(t, store.Ping(ctx), errDown)

		mock.ExpectPing().SetVal("PONG")
		assert.NoError(t, store.Ping(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
