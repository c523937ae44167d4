package services

import (
	"math"
	"testing"
)

func TestHaversineMeters(t *testing.T) {
	// Plaza de Mayo to the Obelisco, Buenos Aires: roughly 1.1km
	d := HaversineMeters(-34.60829, -58.37033, -34.60376, -58.38162)
	if d < 1000 || d > 1300 {
		t.Fatalf("expected roughly 1.1km, got %.0fm", d)
	}

	if d := HaversineMeters(10, 20, 10, 20); d != 0 {
		t.Fatalf("expected zero distance for identical points, got %f", d)
	}
}

func TestGeofenceContains(t *testing.T) {
	fence := NewGeofence(-34.60376, -58.38162, 200)

	if !fence.Contains(-34.60376, -58.38162) {
		t.Fatal("reference point must be inside the fence")
	}
	// ~100m north
	if !fence.Contains(-34.60376+0.0009, -58.38162) {
		t.Fatal("point ~100m away must be inside a 200m fence")
	}
	// ~1.1km away
	if fence.Contains(-34.60829, -58.37033) {
		t.Fatal("point ~1.1km away must be outside a 200m fence")
	}

	if math.Abs(fence.DistanceMeters(-34.60376, -58.38162)) > 0.001 {
		t.Fatal("distance to reference point must be ~0")
	}
}
