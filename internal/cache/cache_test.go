package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

func TestRedis_GetMiss(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb)

	mock.ExpectGet("balance:user:u1").RedisNil()

	var dest snapshot
	found, err := c.Get(context.Background(), "balance:user:u1", &dest)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_GetHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb)

	mock.ExpectGet("balance:user:u1").SetVal(`{"user_id":"u1","balance":1500}`)

	var dest snapshot
	found, err := c.Get(context.Background(), "balance:user:u1", &dest)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, snapshot{UserID: "u1", Balance: 1500}, dest)
}

func TestRedis_GetError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb)

	mock.ExpectGet("balance:user:u1").SetErr(errors.New("connection refused"))

	var dest snapshot
	found, err := c.Get(context.Background(), "balance:user:u1", &dest)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestRedis_Set(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb)

	mock.ExpectSet("balance:user:u1", []byte(`{"user_id":"u1","balance":10}`), time.Minute).SetVal("OK")

	err := c.Set(context.Background(), "balance:user:u1", snapshot{UserID: "u1", Balance: 10}, time.Minute)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_Version(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb)
	ctx := context.Background()

	mock.ExpectGet("ledger:user:u1:version").RedisNil()
	mock.ExpectGet("ledger:user:u1:version").SetVal("3")
	mock.ExpectGet("ledger:user:u1:version").SetErr(errors.New("connection refused"))

	gen, err := c.Version(ctx, "ledger:user:u1:version")
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	gen, err = c.Version(ctx, "ledger:user:u1:version")
	require.NoError(t, err)
	assert.Equal(t, int64(3), gen)

	_, err = c.Version(ctx, "ledger:user:u1:version")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_Bump(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb)

	mock.ExpectIncr("ledger:user:u*:version").SetVal(1)

	gen, err := c.Bump(context.Background(), "ledger:user:u*:version")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	assert.NoError(t, mock.ExpectationsWereMet())
}
