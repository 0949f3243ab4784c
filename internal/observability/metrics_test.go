package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestExpvarMetricsRecorderPublishesSnapshots(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()
	rec.Observe(ctx, "docstore.read", true, 1500*time.Microsecond)
	rec.Observe(ctx, "docstore.read", false, 500*time.Microsecond)
	rec.Observe(ctx, "", true, time.Second)

	snap := rec.Snapshot()
	if got := snap.DurationsMS["docstore.read"]; got != 2 {
		t.Fatalf("expected 2ms total, got %v", got)
	}
	if snap.Results["docstore.read"]["success"] != 1 || snap.Results["docstore.read"]["error"] != 1 {
		t.Fatalf("unexpected results %+v", snap.Results)
	}
	if _, ok := snap.Results[""]; ok {
		t.Fatalf("empty operation must be ignored")
	}

	v := expvar.Get(rec.Name())
	if v == nil {
		t.Fatalf("expected recorder published as %s", rec.Name())
	}
	var decoded ExpvarMetricsSnapshot
	if err := json.Unmarshal([]byte(v.String()), &decoded); err != nil {
		t.Fatalf("decode expvar: %v", err)
	}
	if decoded.Results["docstore.read"]["success"] != 1 {
		t.Fatalf("unexpected published snapshot %+v", decoded)
	}
}

func TestPrometheusRecorderCountsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusRecorder(reg, "ethicure_test")
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()
	rec.Observe(ctx, "admin.delete_doctor", true, time.Millisecond)
	rec.Observe(ctx, "admin.delete_doctor", true, time.Millisecond)
	rec.Observe(ctx, "admin.delete_doctor", false, time.Millisecond)

	if got := promtest.ToFloat64(rec.operations.WithLabelValues("admin.delete_doctor", "success")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := promtest.ToFloat64(rec.operations.WithLabelValues("admin.delete_doctor", "error")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}

	again, err := NewPrometheusRecorder(reg, "ethicure_test")
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if again.operations != rec.operations {
		t.Fatalf("expected existing collector to be reused")
	}
}

func TestSinceReportsErrorOutcome(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	func() (err error) {
		defer Since(context.Background(), rec, "op", time.Now(), &err)
		return errors.New("boom")
	}()
	if rec.Snapshot().Results["op"]["error"] != 1 {
		t.Fatalf("expected error outcome recorded")
	}
	Since(context.Background(), nil, "op", time.Now(), nil)
}

func TestNewLoggerHonoursLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn", "json")
	logger.Info("hidden")
	logger.Warn("shown", "key", "app:users")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered at warn level: %s", out)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &rec); err != nil {
		t.Fatalf("expected json output: %v (%s)", err, out)
	}
	if rec["key"] != "app:users" {
		t.Fatalf("unexpected record %v", rec)
	}
	if ParseLevel("bogus").String() != "INFO" {
		t.Fatalf("unknown levels default to info")
	}
}
