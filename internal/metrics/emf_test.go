package metrics

import (
	"bytes"
	"encoding/json"
	"testing"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })
	return &buf
}

func TestRecorder_FlushOutput(t *testing.T) {
	buf := captureOutput(t)

	New("MemoriesDownload").
		Dimension("Batch", "videos").
		Metric("StitchMs", 1234.5, UnitMilliseconds).
		Metric("MemoriesWritten", 12, UnitCount).
		Property("runId", "run-abc").
		Flush()

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse EMF output as JSON: %v\nOutput: %s", err, buf.String())
	}

	awsMap, ok := doc["_aws"].(map[string]interface{})
	if !ok {
		t.Fatal("missing _aws directive in EMF output")
	}
	if _, ok := awsMap["Timestamp"]; !ok {
		t.Error("missing Timestamp in _aws directive")
	}

	cwArr, ok := awsMap["CloudWatchMetrics"].([]interface{})
	if !ok || len(cwArr) == 0 {
		t.Fatal("CloudWatchMetrics should be a non-empty array")
	}
	cw := cwArr[0].(map[string]interface{})
	if cw["Namespace"] != "MemoriesDownload" {
		t.Errorf("expected namespace MemoriesDownload, got %v", cw["Namespace"])
	}

	if doc["Batch"] != "videos" {
		t.Errorf("expected Batch=videos, got %v", doc["Batch"])
	}
	if doc["StitchMs"] != 1234.5 {
		t.Errorf("expected StitchMs=1234.5, got %v", doc["StitchMs"])
	}
	if doc["MemoriesWritten"] != float64(12) {
		t.Errorf("expected MemoriesWritten=12, got %v", doc["MemoriesWritten"])
	}
	if doc["runId"] != "run-abc" {
		t.Errorf("expected runId=run-abc, got %v", doc["runId"])
	}
	if buf.Bytes()[buf.Len()-1] != '\n' {
		t.Error("expected document to end with a newline")
	}
}

func TestRecorder_FlushEmpty(t *testing.T) {
	buf := captureOutput(t)

	New("Test").Property("runId", "x").Flush()

	if buf.Len() != 0 {
		t.Errorf("expected no output for empty recorder, got: %s", buf.String())
	}
}

func TestRecorder_Chaining(t *testing.T) {
	rec := New("Test").
		Dimension("Op", "stitch").
		Metric("Duration", 100, UnitMilliseconds).
		Count("Calls").
		Property("id", "xyz")

	if rec.dimensions["Op"] != "stitch" {
		t.Error("chaining Dimension failed")
	}
	if rec.values["Duration"] != 100 {
		t.Error("chaining Metric failed")
	}
	if rec.values["Calls"] != 1 || rec.metrics["Calls"].Unit != UnitCount {
		t.Error("chaining Count failed")
	}
	if rec.properties["id"] != "xyz" {
		t.Error("chaining Property failed")
	}
}

func TestSetOutput_NilDiscards(t *testing.T) {
	SetOutput(nil)
	// Must not panic.
	New("Test").Count("Calls").Flush()
}
