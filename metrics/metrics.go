package metrics

import (
	"bytes"
	"encoding/json"
	"time"
)

// MetricsInfo is the record emitted once per cube operation.
type MetricsInfo struct {
	ReqTime      string        `json:"req_time"`
	Duration     time.Duration `json:"duration"`
	Op           string        `json:"op"`
	Path         string        `json:"path"`
	Bands        int           `json:"bands"`
	BytesRead    int64         `json:"bytes_read"`
	BytesWritten int64         `json:"bytes_written"`
	Error        string        `json:"error,omitempty"`
}

type MetricsCollector struct {
	Info   *MetricsInfo
	logger Logger
	start  time.Time
}

// NewMetricsCollector starts timing an operation. A nil logger is allowed
// and turns Log into a no-op.
func NewMetricsCollector(logger Logger) *MetricsCollector {
	now := time.Now()
	return &MetricsCollector{
		Info:   &MetricsInfo{ReqTime: now.UTC().Format(time.RFC3339)},
		logger: logger,
		start:  now,
	}
}

func (m *MetricsCollector) Log() {
	if m.logger != nil {
		m.logger.Log(m.Info)
	}
}

// Finish records the duration and outcome of the operation and logs it.
func (m *MetricsCollector) Finish(err error) {
	m.Info.Duration = time.Since(m.start)
	if err != nil {
		m.Info.Error = err.Error()
	}
	m.Log()
}

func (i *MetricsInfo) ToJSON() (string, error) {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(i)
	if err == nil {
		return buf.String(), nil
	} else {
		return "", err
	}
}
