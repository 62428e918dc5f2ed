package recovery

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestRecoverToValue(t *testing.T) {
	var buf bytes.Buffer
	log := testLogger(&buf)

	got, err := RecoverToValue(log, "ok", func() (int, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Fatalf("RecoverToValue() = %d, %v", got, err)
	}

	want := errors.New("plain")
	if _, err := RecoverToValue(log, "fails", func() (int, error) { return 0, want }); err != want {
		t.Fatalf("expected error passthrough, got %v", err)
	}

	got, err = RecoverToValue(log, "scalar function a5_cell_area", func() (int, error) {
		var m map[string]int
		m["boom"] = 1
		return 1, nil
	})
	if got != 0 {
		t.Errorf("expected zero value after panic, got %d", got)
	}
	if !errors.Is(err, ErrPanic) || !strings.HasPrefix(err.Error(), "scalar function a5_cell_area: panic") {
		t.Errorf("unexpected error %v", err)
	}
	if !strings.Contains(buf.String(), "Panic recovered") {
		t.Errorf("panic was not logged: %s", buf.String())
	}
}

func TestRecoverToError(t *testing.T) {
	var buf bytes.Buffer
	err := RecoverToError(testLogger(&buf), "Scan res0_cells", func() error {
		panic("scan exploded")
	})
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Internal {
		t.Fatalf("expected Internal status, got %v", err)
	}
	if !strings.Contains(st.Message(), "scan exploded") {
		t.Errorf("message %q lacks panic value", st.Message())
	}

	if err := RecoverToError(testLogger(&buf), "Scan", func() error { return nil }); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	ran := false
	Recover(testLogger(&buf), "reader", func() {
		ran = true
		panic("reader died")
	})
	if !ran || !strings.Contains(buf.String(), "reader died") {
		t.Errorf("panic not recovered and logged: %s", buf.String())
	}
}
