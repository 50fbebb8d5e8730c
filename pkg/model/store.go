package model

import (
	"fmt"
	"math"
)

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that both components are finite and in range.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return fmt.Errorf("coordinate must be finite, got (%v, %v)", c.Lat, c.Lon)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude out of range [-90, 90]: %v", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude out of range [-180, 180]: %v", c.Lon)
	}
	return nil
}

// Store is reference data describing a physical shop. Stores are created
// and updated by an external catalog; the engine only reads them.
type Store struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Location     Coordinate `json:"location"`
	Address      string     `json:"address"`
	OpeningHours string     `json:"opening_hours,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Rating       float64    `json:"rating,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
}

// Validate rejects stores with missing ids or out-of-range coordinates.
func (s Store) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("store id is required")
	}
	if err := s.Location.Validate(); err != nil {
		return fmt.Errorf("store %s: %w", s.ID, err)
	}
	return nil
}

// Product is the aggregation key for price records. The engine never owns
// product metadata; records reference products by id only.
type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	Barcode  string   `json:"barcode,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}
