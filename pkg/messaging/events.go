package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Scan events
	EventScanCompleted = "idcard.scan.completed"
	EventScanFailed    = "idcard.scan.failed"
)

// Exchange names
const (
	ExchangeScanEvents = "idcard.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ScanCompletedEvent is published when an ID card scan finishes, whatever
// its quality. Consumers inspect ErrorCode to decide whether to retry with
// another photograph.
type ScanCompletedEvent struct {
	JobID      string `json:"job_id"`
	ErrorCode  int    `json:"error_code"`
	IDPresent  bool   `json:"id_present"`
	DurationMs int64  `json:"duration_ms"`
}

// ScanFailedEvent is published when a scan could not run at all
// (unreadable image or both engines down).
type ScanFailedEvent struct {
	JobID  string `json:"job_id"`
	Reason string `json:"reason"`
}
