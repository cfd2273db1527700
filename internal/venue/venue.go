package venue

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"sunnysips/internal/solar"
)

// Venue is a geolocated seating spot with its precomputed reference-time sun
// geometry. The engine treats venues as read-only input.
type Venue struct {
	ID              string           `json:"id"`
	OSMID           int64            `json:"osm_id,omitempty"`
	Name            string           `json:"name"`
	Coordinate      solar.Coordinate `json:"coordinate"`
	SunElevationDeg float64          `json:"sun_elevation_deg"`
	SunAzimuthDeg   float64          `json:"sun_azimuth_deg"`
	SunnyFraction   float64          `json:"sunny_fraction"`
}

type registryFile struct {
	Venues []Venue `json:"venues"`
}

// Registry holds the venue set for one city. Immutable after Load.
type Registry struct {
	venues []Venue
	byID   map[string]int
}

// Load reads the venue file produced by the ingest pipeline.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read venues file: %w", err)
	}

	var file registryFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode venues file: %w", err)
	}

	return NewRegistry(file.Venues), nil
}

func NewRegistry(venues []Venue) *Registry {
	r := &Registry{
		venues: venues,
		byID:   make(map[string]int, len(venues)),
	}
	for i := range venues {
		r.byID[strings.ToLower(venues[i].ID)] = i
	}
	return r
}

// Get resolves a venue id, accepting the canonical id, an "osm-<id>" alias, or
// a bare numeric OSM id.
func (r *Registry) Get(id string) (Venue, bool) {
	normalized := strings.ToLower(strings.TrimSpace(id))
	if idx, ok := r.byID[normalized]; ok {
		return r.venues[idx], true
	}

	normalized = strings.TrimPrefix(normalized, "osm-")
	osmID, err := strconv.ParseInt(normalized, 10, 64)
	if err != nil {
		return Venue{}, false
	}
	for i := range r.venues {
		if r.venues[i].OSMID == osmID {
			return r.venues[i], true
		}
	}
	return Venue{}, false
}

// All returns the venues in file order.
func (r *Registry) All() []Venue {
	return r.venues
}

func (r *Registry) Len() int {
	return len(r.venues)
}
