package geo

import (
	"math"
	"testing"
	"time"
)

func TestDistanceReference(t *testing.T) {
	// One degree of longitude at the equator is a published reference:
	// pi/180 * 6371000 = 111194.9 m.
	d := Distance(0, 0, 0, 1)
	if math.Abs(d-111194.9) > 1 {
		t.Fatalf("expected ~111195 m for one degree at the equator, got %f", d)
	}
}

func TestDistanceZero(t *testing.T) {
	d := Distance(6.9271, 79.8612, 6.9271, 79.8612)
	if d != 0 {
		t.Fatalf("expected 0 for identical points, got %f", d)
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := Distance(6.9271, 79.8612, 7.2906, 80.6337)
	b := Distance(7.2906, 80.6337, 6.9271, 79.8612)
	if math.Abs(a-b) > 1e-6 {
		t.Fatalf("distance not symmetric: %f vs %f", a, b)
	}
}

func TestSpeed(t *testing.T) {
	t0 := time.Now()
	t1 := t0.Add(10 * time.Second)

	// ~111.19 m north in 10 seconds.
	s := Speed(0, 0, t0, 0.001, 0, t1)
	if math.Abs(s-11.119) > 0.1 {
		t.Fatalf("expected ~11.1 m/s, got %f", s)
	}
}

func TestSpeedUnorderedFixes(t *testing.T) {
	t0 := time.Now()
	s := Speed(0, 0, t0, 0.001, 0, t0)
	if s != 0 {
		t.Fatalf("expected 0 for zero elapsed time, got %f", s)
	}
}

func TestBearingQuadrants(t *testing.T) {
	north := Bearing(0, 0, 1, 0)
	if math.Abs(north-0) > 1e-6 {
		t.Fatalf("expected 0 for due north delta, got %f", north)
	}

	east := Bearing(0, 0, 0, 1)
	if math.Abs(east-90) > 1e-6 {
		t.Fatalf("expected 90 for due east delta, got %f", east)
	}
}
