package alerting

// Resource is the closed set of alertable resources.
type Resource string

const (
	ResourceCPU     Resource = "cpu"
	ResourceMemory  Resource = "memory"
	ResourceStorage Resource = "storage"
)

// Label returns the human-readable resource name used in notification messages.
func (r Resource) Label() string {
	switch r {
	case ResourceCPU:
		return "CPU"
	case ResourceMemory:
		return "Memory"
	case ResourceStorage:
		return "Storage"
	default:
		return string(r)
	}
}

// ThresholdConfig holds the per-resource alert thresholds in percent and the
// global enable switch. Defaults are resolved once at load time by the
// settings source, never re-derived at use sites.
type ThresholdConfig struct {
	Enabled        bool    `json:"enabled"`
	CPUPercent     float64 `json:"cpuPercent"`
	MemoryPercent  float64 `json:"memoryPercent"`
	StoragePercent float64 `json:"storagePercent"`
}

// WebhookConfig describes one notification target.
type WebhookConfig struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	URL          string            `json:"url"`
	Method       string            `json:"method"`
	Headers      map[string]string `json:"headers,omitempty"`
	BodyTemplate string            `json:"bodyTemplate,omitempty"`
	Enabled      bool              `json:"enabled"`
}

// HistoryEntry records one delivery attempt. StatusCode is nil when the
// request never produced an HTTP response.
type HistoryEntry struct {
	ID             string  `json:"id"`
	TimestampMs    int64   `json:"timestampMs"`
	WebhookName    string  `json:"webhookName"`
	WebhookURL     string  `json:"webhookUrl"`
	Method         string  `json:"method"`
	StatusCode     *int    `json:"statusCode,omitempty"`
	Success        bool    `json:"success"`
	Error          *string `json:"error,omitempty"`
	Reason         string  `json:"reason"`
	ResponseTimeMs int64   `json:"responseTimeMs"`
}

// Event is one triggering occurrence handed to the dispatcher.
type Event struct {
	TimestampMs  int64
	Alert        string
	Resource     Resource
	CurrentValue float64
	Threshold    float64
	Message      string
	Reason       string
}
