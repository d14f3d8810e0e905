package actuator

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/teslashibe/focuson/internal/log"
)

func init() {
	log.SetOutput(io.Discard, "error")
}

func TestMapper_Map(t *testing.T) {
	m := DefaultMapper()

	tests := []struct {
		score float64
		want  Band
	}{
		{0, BandLow},
		{29.99, BandLow},
		{30, BandMedium},
		{50, BandMedium},
		{69.99, BandMedium},
		{70, BandHigh},
		{100, BandHigh},
	}

	for _, tt := range tests {
		if got := m.Map(tt.score); got != tt.want {
			t.Errorf("Map(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestBand_Color(t *testing.T) {
	if BandHigh.Color() != "green" || BandMedium.Color() != "yellow" || BandLow.Color() != "red" {
		t.Errorf("unexpected colors: %s %s %s", BandHigh.Color(), BandMedium.Color(), BandLow.Color())
	}
}

func TestMapper_Valid(t *testing.T) {
	if !DefaultMapper().Valid() {
		t.Error("default mapper should be valid")
	}
	if (Mapper{LowCutoff: 70, HighCutoff: 30}).Valid() {
		t.Error("inverted cutoffs should be invalid")
	}
}

func TestDriver_EmitWritesEveryTick(t *testing.T) {
	port := &MockPort{}
	d := NewDriver(port)

	for _, b := range []Band{BandHigh, BandHigh, BandLow} {
		if err := d.Emit(b); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}

	want := []string{"green", "green", "red"}
	if got := port.Tokens(); !reflect.DeepEqual(got, want) {
		t.Errorf("tokens = %v, want %v", got, want)
	}
}

func TestDriver_SuppressDuplicates(t *testing.T) {
	port := &MockPort{}
	d := NewDriver(port, WithSuppressDuplicates(true))

	for _, b := range []Band{BandHigh, BandHigh, BandMedium, BandMedium, BandHigh} {
		d.Emit(b)
	}

	want := []string{"green", "yellow", "green"}
	if got := port.Tokens(); !reflect.DeepEqual(got, want) {
		t.Errorf("tokens = %v, want %v", got, want)
	}
	sent, skipped, failed := d.Stats()
	if sent != 3 || skipped != 2 || failed != 0 {
		t.Errorf("stats = %d/%d/%d, want 3/2/0", sent, skipped, failed)
	}
}

func TestDriver_WriteErrorIsCounted(t *testing.T) {
	port := &MockPort{WriteErr: errors.New("unplugged")}
	d := NewDriver(port)

	if err := d.Emit(BandLow); err == nil {
		t.Fatal("expected write error")
	}
	if _, _, failed := d.Stats(); failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
}

func TestDriver_NilPort(t *testing.T) {
	d := NewDriver(nil)
	if err := d.Emit(BandHigh); err != nil {
		t.Errorf("nil port Emit: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("nil port Close: %v", err)
	}
}

func TestDriver_Sweep(t *testing.T) {
	port := &MockPort{}
	d := NewDriver(port)

	scores := []float64{95, 50, 20, 75, 65, 10}
	if err := d.Sweep(context.Background(), DefaultMapper(), scores, 0); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	want := []string{"green", "yellow", "red", "green", "yellow", "red"}
	if got := port.Tokens(); !reflect.DeepEqual(got, want) {
		t.Errorf("tokens = %v, want %v", got, want)
	}

	d.Close()
	if !port.Closed() {
		t.Error("expected port closed")
	}
}
