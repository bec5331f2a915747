package console

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

const clearSequence = "\r                    \r"

func TestIndicatorDrawsFramesAndClears(t *testing.T) {
	var buf bytes.Buffer
	ind := StartIndicator(&buf)
	time.Sleep(250 * time.Millisecond)
	ind.Stop()

	out := buf.String()
	if !strings.HasPrefix(out, "\rLoading... /") {
		t.Fatalf("output starts with %q, want first frame", out[:min(len(out), 20)])
	}
	if !strings.Contains(out, "\rLoading... -") {
		t.Fatalf("output missing second frame: %q", out)
	}
	if !strings.HasSuffix(out, clearSequence) {
		t.Fatalf("output does not end with clear sequence: %q", out)
	}
}

func TestIndicatorStopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	ind := StartIndicator(&buf)
	time.Sleep(50 * time.Millisecond)
	ind.Stop()

	n := buf.Len()
	ind.Stop()
	ind.Stop()

	if buf.Len() != n {
		t.Fatalf("repeated Stop wrote %d extra bytes", buf.Len()-n)
	}
	if got := strings.Count(buf.String(), clearSequence); got != 1 {
		t.Fatalf("clear sequence written %d times, want 1", got)
	}
}

func TestIndicatorImmediateStop(t *testing.T) {
	// A stream can end before producing any fragment; Stop must still
	// join and clear without hanging.
	var buf bytes.Buffer
	ind := StartIndicator(&buf)
	ind.Stop()

	if !strings.HasSuffix(buf.String(), clearSequence) {
		t.Fatalf("output does not end with clear sequence: %q", buf.String())
	}
}

func TestIndicatorWritesNothingAfterStop(t *testing.T) {
	var buf bytes.Buffer
	ind := StartIndicator(&buf)
	time.Sleep(120 * time.Millisecond)
	ind.Stop()

	n := buf.Len()
	time.Sleep(250 * time.Millisecond)
	if buf.Len() != n {
		t.Fatalf("indicator wrote %d bytes after Stop", buf.Len()-n)
	}
}

func TestIndicatorJoinedBeforeSubsequentOutput(t *testing.T) {
	var buf bytes.Buffer
	ind := StartIndicator(&buf)
	time.Sleep(50 * time.Millisecond)
	ind.Stop()
	buf.WriteString("⏺ Read(main.go)")

	if !strings.HasSuffix(buf.String(), clearSequence+"⏺ Read(main.go)") {
		t.Fatalf("output interleaved with indicator frames: %q", buf.String())
	}
}
