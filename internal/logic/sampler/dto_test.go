package sampler_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/declue/container-ops/internal/logic/sampler"
)

func ptrF(v float64) *float64 { return &v }

func ptrI32(v int32) *int32 { return &v }

func TestMetricsSnapshot_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	snapshot := sampler.MetricsSnapshot{
		TimestampMs: 1700000000000,
		Limits: sampler.ResourceLimits{
			CPULimitCores:    1.5,
			MemoryLimitBytes: 2 << 30,
		},
		Usage: sampler.ContainerUsage{
			CPUUsagePercent:     12.5,
			MemoryUsageBytes:    1 << 30,
			MemoryUsagePercent:  50,
			StorageTotalBytes:   100 << 30,
			StorageUsedBytes:    40 << 30,
			StorageUsagePercent: 40,
		},
		UIDNames: map[string]string{
			"0":    "root",
			"1000": "app",
			"999":  "999",
		},
		Processes: []sampler.ProcessSample{
			{
				PID:           1,
				PPID:          0,
				UID:           ptrI32(0),
				Command:       "/sbin/init",
				CPUPercent:    ptrF(3.2),
				MemoryBytes:   10 << 20,
				MemoryPercent: ptrF(0.5),
			},
			{
				// First observation: cpu percent stays null.
				PID:         4242,
				PPID:        1,
				UID:         ptrI32(1000),
				Command:     "node server.js",
				CPUPercent:  nil,
				MemoryBytes: 256 << 20,
			},
		},
	}

	payload, err := json.Marshal(snapshot)
	require.NoError(t, err)

	var decoded sampler.MetricsSnapshot
	require.NoError(t, json.Unmarshal(payload, &decoded))

	require.Equal(t, snapshot, decoded)
	require.Nil(t, decoded.Processes[1].CPUPercent)
}

func TestClampPercent(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0.0, sampler.ClampPercent(-3))
	require.Equal(t, 100.0, sampler.ClampPercent(173.4))
	require.Equal(t, 55.5, sampler.ClampPercent(55.5))
}
