package testutil

import (
	"math"
	"net/http"
	"testing"
)

func TestAssertStatusCode_Matching(t *testing.T) {
	AssertStatusCode(t, http.StatusOK, http.StatusOK)
}

func TestNewTestRequest(t *testing.T) {
	req := NewTestRequest(http.MethodPost, "/api/reset")
	if req.Method != http.MethodPost || req.URL.Path != "/api/reset" {
		t.Errorf("unexpected request %s %s", req.Method, req.URL.Path)
	}
}

func TestBlob(t *testing.T) {
	points := Blob(100, -50, 5, 40, "iron", 7)
	if len(points) != 40 {
		t.Fatalf("got %d points, want 40", len(points))
	}
	for i, p := range points {
		if math.Abs(p.X-100) > 5 || math.Abs(p.Y+50) > 5 {
			t.Errorf("point %d (%f, %f) outside blob", i, p.X, p.Y)
		}
		if p.Category != "iron" {
			t.Errorf("point %d category = %q", i, p.Category)
		}
	}

	again := Blob(100, -50, 5, 40, "iron", 7)
	for i := range points {
		if points[i] != again[i] {
			t.Fatalf("Blob not deterministic at %d", i)
		}
	}
}

func TestRing(t *testing.T) {
	for i, p := range Ring(10, 10, 3, 12) {
		if d := math.Hypot(p.X-10, p.Y-10); math.Abs(d-3) > 1e-9 {
			t.Errorf("point %d at radius %f, want 3", i, d)
		}
	}
}

func TestTwoBlobs(t *testing.T) {
	points, bounds := TwoBlobs(25)
	if len(points) != 50 {
		t.Fatalf("got %d points, want 50", len(points))
	}
	if err := bounds.Validate(); err != nil {
		t.Fatalf("bounds invalid: %v", err)
	}
	for i, p := range points {
		if !bounds.Contains(p.Vec()) {
			t.Errorf("point %d outside bounds", i)
		}
	}
}

func TestSquare(t *testing.T) {
	if got := len(Square(10)); got != 4 {
		t.Errorf("Square returned %d points", got)
	}
}
