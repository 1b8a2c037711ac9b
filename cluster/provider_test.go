package cluster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hagay3/baker/config"
)

func TestStaticProvider_Join(t *testing.T) {
	provider := NewStaticProvider()

	fired := 0
	provider.RegisterOnMemberUp(func() { fired++ })

	require.NoError(t, provider.Join(context.Background()))

	assert.Equal(t, 1, fired)
	assert.True(t, provider.Joined())
}

func TestStaticProvider_JoinWithoutCallback(t *testing.T) {
	provider := NewStaticProvider()

	require.NoError(t, provider.Join(context.Background()))
	assert.True(t, provider.Joined())
}

func TestStaticProvider_JoinCancelled(t *testing.T) {
	provider := NewStaticProvider()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := provider.Join(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, provider.Joined())
}

func TestStaticProvider_Leave(t *testing.T) {
	provider := NewStaticProvider()
	require.NoError(t, provider.Join(context.Background()))

	require.NoError(t, provider.Leave(0))

	assert.False(t, provider.Joined())
}

func TestNewNATSProvider(t *testing.T) {
	provider, err := NewNATSProvider(config.Cluster{
		URL:      "nats://127.0.0.1:4222",
		Bucket:   "bakery-members",
		NodeName: "oven-1",
	}, testLogger())

	require.NoError(t, err)
	assert.Equal(t, "oven-1", provider.NodeName())
	assert.False(t, provider.Joined())
}

func TestNewNATSProvider_GeneratedNodeName(t *testing.T) {
	provider, err := NewNATSProvider(config.Cluster{
		URL:    "nats://127.0.0.1:4222",
		Bucket: "bakery-members",
	}, testLogger())

	require.NoError(t, err)
	assert.Contains(t, provider.NodeName(), "node-")
}

func TestNewNATSProvider_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Cluster
	}{
		{name: "missing url", cfg: config.Cluster{Bucket: "bakery-members"}},
		{name: "missing bucket", cfg: config.Cluster{URL: "nats://127.0.0.1:4222"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNATSProvider(tt.cfg, testLogger())
			require.Error(t, err)
		})
	}
}

func TestNATSProvider_LeaveWithoutJoin(t *testing.T) {
	provider, err := NewNATSProvider(config.Cluster{
		URL:    "nats://127.0.0.1:4222",
		Bucket: "bakery-members",
	}, testLogger())
	require.NoError(t, err)

	assert.NoError(t, provider.Leave(0))
}

func TestMemberKey(t *testing.T) {
	assert.Equal(t, "members.oven-1", memberKey("oven-1"))
}
