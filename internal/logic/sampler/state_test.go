package sampler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/declue/container-ops/internal/logic/sampler"
)

func TestSamplerState_Prune(t *testing.T) {
	t.Parallel()

	state := sampler.NewSamplerState()
	state.PerProcess[1] = sampler.ProcessStamp{Jiffies: 10, TimestampMs: 100}
	state.PerProcess[2] = sampler.ProcessStamp{Jiffies: 20, TimestampMs: 100}
	state.PerProcess[3] = sampler.ProcessStamp{Jiffies: 30, TimestampMs: 100}

	state.Prune(map[int32]struct{}{1: {}, 3: {}})

	require.Contains(t, state.PerProcess, int32(1))
	require.NotContains(t, state.PerProcess, int32(2))
	require.Contains(t, state.PerProcess, int32(3))
}

func TestSamplerState_PruneEmptySeenClearsAll(t *testing.T) {
	t.Parallel()

	state := sampler.NewSamplerState()
	state.PerProcess[1] = sampler.ProcessStamp{Jiffies: 10, TimestampMs: 100}

	state.Prune(map[int32]struct{}{})

	require.Empty(t, state.PerProcess)
}
