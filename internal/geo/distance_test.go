package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bloodbridge-backend/internal/domain"
)

func TestDistanceKm(t *testing.T) {
	t.Run("zero distance for identical points", func(t *testing.T) {
		p := domain.Point{Latitude: 12.9716, Longitude: 77.5946}
		assert.Equal(t, 0.0, DistanceKm(p, p))
	})

	t.Run("one degree of latitude is about 111km", func(t *testing.T) {
		a := domain.Point{Latitude: 0, Longitude: 0}
		b := domain.Point{Latitude: 1, Longitude: 0}
		assert.InDelta(t, 111.2, DistanceKm(a, b), 1.2)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := domain.Point{Latitude: 12.9716, Longitude: 77.5946}
		b := domain.Point{Latitude: 13.0827, Longitude: 80.2707}
		assert.Equal(t, DistanceKm(a, b), DistanceKm(b, a))
	})

	t.Run("known city pair", func(t *testing.T) {
		// Bengaluru to Chennai, roughly 290km great-circle.
		a := domain.Point{Latitude: 12.9716, Longitude: 77.5946}
		b := domain.Point{Latitude: 13.0827, Longitude: 80.2707}
		assert.InDelta(t, 290, DistanceKm(a, b), 10)
	})
}
