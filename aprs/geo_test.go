package aprs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine_KnownDistance(t *testing.T) {
	// Albuquerque to Santa Fe, roughly 90 km
	d := Haversine(35.0844, -106.6504, 35.6870, -105.9378)
	assert.InDelta(t, 92, d, 5)
}

func TestHaversine_Zero(t *testing.T) {
	assert.InDelta(t, 0, Haversine(35, -106, 35, -106), 1e-9)
}

func TestHaversine_MonotonicAlongMeridian(t *testing.T) {
	prev := 0.0
	for deg := 1.0; deg <= 10; deg++ {
		d := Haversine(35, -106, 35+deg, -106)
		assert.Greater(t, d, prev)
		prev = d
	}
}

func TestHaversine_OneDegreeLatitude(t *testing.T) {
	// a degree of latitude is about 111 km everywhere
	d := Haversine(0, 0, 1, 0)
	assert.InDelta(t, 111.2, d, 1)
}
