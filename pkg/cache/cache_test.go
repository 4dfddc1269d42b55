package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratoslabs/dircore/pkg/logger"
)

func TestNoopValkey_SetGetDelete(t *testing.T) {
	c := NewNoopValkey(logger.New("error"))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "principal:42", []byte(`{"id":42}`), time.Minute))

	got, err := c.Get(ctx, "principal:42")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":42}`), got)

	require.NoError(t, c.Delete(ctx, "principal:42"))
	_, err = c.Get(ctx, "principal:42")
	assert.Error(t, err)
}

func TestNoopValkey_SetMarshalsStructs(t *testing.T) {
	c := NewNoopValkey(logger.New("error"))
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.Set(ctx, "k", payload{Name: "acme"}, 0))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"acme"}`, string(got))
}

func TestNoopValkey_DeleteMultiple(t *testing.T) {
	c := NewNoopValkey(logger.New("error"))
	ctx := context.Background()

	for _, k := range []string{"principal:1", "principal:2", "principal:3"} {
		require.NoError(t, c.Set(ctx, k, "x", 0))
	}
	require.NoError(t, c.DeleteMultiple(ctx, []string{"principal:1", "principal:3"}))

	_, err := c.Get(ctx, "principal:1")
	assert.Error(t, err)
	_, err = c.Get(ctx, "principal:2")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "principal:3")
	assert.Error(t, err)
}

func TestNoopValkey_HealthCheckReportsDegraded(t *testing.T) {
	c := NewNoopValkey(logger.New("error"))
	assert.Error(t, c.HealthCheck(context.Background()))
}
