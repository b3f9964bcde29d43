package alerting_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/declue/container-ops/internal/logic/alerting"
)

func TestRenderBodyTemplate_Message(t *testing.T) {
	t.Parallel()

	event := alerting.NewThresholdEvent(1700000000000, alerting.ResourceCPU, 85.0, 80)

	require.Equal(t,
		"CPU usage (85.0%) has exceeded the threshold of 80%",
		event.Message,
	)

	rendered := alerting.RenderBodyTemplate(`{"text":"{{message}}"}`, event)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	require.Equal(t, "CPU usage (85.0%) has exceeded the threshold of 80%", decoded["text"])
}

func TestRenderBodyTemplate_AllPlaceholders(t *testing.T) {
	t.Parallel()

	event := alerting.NewThresholdEvent(42, alerting.ResourceStorage, 91.5, 90)

	rendered := alerting.RenderBodyTemplate(
		"{{timestamp}}|{{alert}}|{{resource}}|{{currentValue}}|{{threshold}}",
		event,
	)

	require.Equal(t, "42|resource_threshold|storage|91.5|90", rendered)
}

func TestRenderBodyTemplate_UnknownPlaceholderPassesThrough(t *testing.T) {
	t.Parallel()

	event := alerting.NewThresholdEvent(1, alerting.ResourceMemory, 85, 80)

	rendered := alerting.RenderBodyTemplate(`{{unknown}} {{resource}}`, event)
	require.Equal(t, "{{unknown}} memory", rendered)
}
