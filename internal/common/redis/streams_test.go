package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishToStream_StringifiesValues(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	id, err := PublishToStream(ctx, client, "test:stream", 0, map[string]interface{}{
		"name":    "accept",
		"version": int64(3),
		"ok":      true,
		"meta":    map[string]string{"k": "v"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs, err := client.XRange(ctx, "test:stream", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "accept", msgs[0].Values["name"])
	assert.Equal(t, "3", msgs[0].Values["version"])
	assert.Equal(t, "true", msgs[0].Values["ok"])
	assert.Equal(t, `{"k":"v"}`, msgs[0].Values["meta"])
}
