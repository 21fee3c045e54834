package metrics

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/sipeed/picoclaw-files/pkg/logger"
	"github.com/sipeed/picoclaw-files/pkg/upload"
)

// ExtractionEvent records the outcome of a single file extraction.
type ExtractionEvent struct {
	Timestamp  string `json:"ts"`
	Method     string `json:"method"`
	Files      int    `json:"files"`
	Fields     int    `json:"fields"`
	Multipart  bool   `json:"multipart"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Tracker appends extraction events to a JSONL file.
type Tracker struct {
	filePath string
	mu       sync.Mutex
}

// NewTracker creates a tracker that writes to dir/metrics/uploads.jsonl.
func NewTracker(dir string) *Tracker {
	metricsDir := filepath.Join(dir, "metrics")
	if err := os.MkdirAll(metricsDir, 0755); err != nil {
		logger.WarnCF("metrics", "Failed to create metrics directory", map[string]interface{}{
			"dir":   metricsDir,
			"error": err.Error(),
		})
	}
	return &Tracker{
		filePath: filepath.Join(metricsDir, "uploads.jsonl"),
	}
}

// Path returns the file events are appended to.
func (t *Tracker) Path() string {
	return t.filePath
}

// Record appends an event to the JSONL file.
func (t *Tracker) Record(event ExtractionEvent) {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().Format(time.RFC3339)
	}

	data, err := sonic.Marshal(event)
	if err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logger.WarnCF("metrics", "Failed to open metrics file", map[string]interface{}{
			"path":  t.filePath,
			"error": err.Error(),
		})
		return
	}
	defer f.Close()

	f.Write(append(data, '\n'))
}

// RecordExtraction implements upload.Recorder.
func (t *Tracker) RecordExtraction(stats upload.ExtractionStats) {
	event := ExtractionEvent{
		Method:     stats.Method,
		Files:      stats.Files,
		Fields:     stats.Fields,
		Multipart:  stats.Multipart,
		DurationMS: stats.Duration.Milliseconds(),
	}
	if stats.Err != nil {
		event.Error = stats.Err.Error()
	}
	t.Record(event)
}

// Events reads back every recorded event. A missing file yields no events.
func (t *Tracker) Events() ([]ExtractionEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.Open(t.filePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open metrics: %w", err)
	}
	defer f.Close()

	var events []ExtractionEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev ExtractionEvent
		if err := sonic.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("decode metrics line: %w", err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read metrics: %w", err)
	}
	return events, nil
}
