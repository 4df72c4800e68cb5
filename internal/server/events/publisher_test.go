package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/authcore/internal/server/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleEvent(id string) models.UserRegistered {
	return models.UserRegistered{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: "User " + id,
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC),
	}
}

func TestRedisStreamPublisher_Appends(t *testing.T) {
	_, client := newRedis(t)
	p := NewRedisStreamPublisher(client, "", 0)

	require.NoError(t, p.PublishUserRegistered(context.Background(), sampleEvent("u1")))

	msgs, err := client.XRange(context.Background(), DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "u1", msgs[0].Values["id"])
	assert.Equal(t, "u1@example.com", msgs[0].Values["email"])
	assert.Equal(t, "User u1", msgs[0].Values["displayName"])
	assert.Equal(t, "2026-03-01T12:00:00.0000005Z", msgs[0].Values["createdAt"])
}

func TestRedisStreamPublisher_MaxLen(t *testing.T) {
	_, client := newRedis(t)
	p := NewRedisStreamPublisher(client, "regs", 2)

	for i := 0; i < 5; i++ {
		require.NoError(t, p.PublishUserRegistered(context.Background(), sampleEvent(fmt.Sprintf("u%d", i))))
	}

	n, err := client.XLen(context.Background(), "regs").Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, n, int64(5))
	assert.GreaterOrEqual(t, n, int64(2))
}

func TestRedisStreamPublisher_BrokerDown(t *testing.T) {
	mr, client := newRedis(t)
	p := NewRedisStreamPublisher(client, "regs", 0)
	mr.Close()

	err := p.PublishUserRegistered(context.Background(), sampleEvent("u1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xadd regs")
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.PublishUserRegistered(context.Background(), sampleEvent("u1")))
}
