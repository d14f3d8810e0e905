package gaze

import (
	"context"
	"errors"
	"testing"
)

func TestThresholdsClassify(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		ratio float64
		want  Direction
	}{
		{0.0, DirRight},
		{0.35, DirRight},
		{0.36, DirCenter},
		{0.5, DirCenter},
		{0.64, DirCenter},
		{0.65, DirLeft},
		{1.0, DirLeft},
	}
	for _, tt := range tests {
		if got := th.Classify(tt.ratio); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.ratio, got, tt.want)
		}
	}
}

func TestLookingAway(t *testing.T) {
	tests := []struct {
		dir  Direction
		want bool
	}{
		{DirUnknown, false},
		{DirCenter, false},
		{DirLeft, true},
		{DirRight, true},
	}
	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			if got := (Observation{Direction: tt.dir}).LookingAway(); got != tt.want {
				t.Errorf("LookingAway() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScripted(t *testing.T) {
	ctx := context.Background()
	s := NewScripted(
		Observation{FaceFound: true, Blinking: true},
		Observation{FaceFound: true, Direction: DirLeft},
	)

	first, _ := s.Next(ctx)
	if !first.Blinking {
		t.Error("first observation should be blinking")
	}
	for i := 0; i < 3; i++ {
		o, err := s.Next(ctx)
		if err != nil || o.Direction != DirLeft {
			t.Fatalf("repeat %d: %+v, %v", i, o, err)
		}
	}

	s.Close()
	if _, err := s.Next(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestScriptedDefault(t *testing.T) {
	o, err := NewScripted().Next(context.Background())
	if err != nil || !o.FaceFound || o.LookingAway() {
		t.Errorf("default observation = %+v, %v", o, err)
	}
}
