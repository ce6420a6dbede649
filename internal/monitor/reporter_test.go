// Gatewarden - Multi-Level Authorization Policy Engine
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package monitor

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/gatewarden/gatewarden/internal/logging"
)

func TestLogReporterError(t *testing.T) {
	var buf bytes.Buffer

	r := NewLogReporterWithLogger(logging.NewTestLogger(&buf))
	r.Report("no actions set for role", LevelError, map[string]string{
		"role":    "ghost",
		"subject": "user@example.com",
	})

	output := buf.String()
	if !strings.Contains(output, `"level":"error"`) {
		t.Errorf("expected error level, got: %s", output)
	}
	if !strings.Contains(output, `"role":"ghost"`) {
		t.Errorf("expected role field, got: %s", output)
	}
	if !strings.Contains(output, "no actions set for role") {
		t.Errorf("expected message, got: %s", output)
	}
}

func TestLogReporterWarning(t *testing.T) {
	var buf bytes.Buffer

	r := NewLogReporterWithLogger(logging.NewTestLogger(&buf))
	r.Report("slow policy load", LevelWarning, nil)

	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Errorf("expected warn level, got: %s", buf.String())
	}
}

func TestLogReporterCritical(t *testing.T) {
	var buf bytes.Buffer

	r := NewLogReporterWithLogger(logging.NewTestLogger(&buf))
	r.Report("could not identify resource", LevelCritical, nil)

	output := buf.String()
	if !strings.Contains(output, `"level":"error"`) {
		t.Errorf("expected error level for critical, got: %s", output)
	}
	if !strings.Contains(output, `"severity":"critical"`) {
		t.Errorf("expected critical severity field, got: %s", output)
	}
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := &Recorder{}
	r.Report("first", LevelError, map[string]string{"k": "v"})
	r.Report("second", LevelWarning, nil)

	if r.Count() != 2 {
		t.Fatalf("expected 2 reports, got %d", r.Count())
	}

	reports := r.Reports()
	if reports[0].Message != "first" || reports[0].Fields["k"] != "v" {
		t.Errorf("unexpected first report: %+v", reports[0])
	}
	if reports[1].Level != LevelWarning {
		t.Errorf("unexpected second report level: %s", reports[1].Level)
	}
}

func TestRecorderConcurrent(t *testing.T) {
	t.Parallel()

	r := &Recorder{}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Report("concurrent", LevelError, nil)
		}()
	}
	wg.Wait()

	if r.Count() != 10 {
		t.Errorf("expected 10 reports, got %d", r.Count())
	}
}

func TestNop(t *testing.T) {
	t.Parallel()

	var r Reporter = Nop{}
	r.Report("ignored", LevelCritical, nil)
}
