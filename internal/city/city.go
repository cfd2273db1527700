package city

import (
	"sort"
	"time"
)

// BBox is (minLon, minLat, maxLon, maxLat) in WGS84 degrees.
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

func (b BBox) Contains(lat, lon float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// Config describes a supported city: timezone, bounding box, and the snapshot
// areas the bulk feed is published under.
type Config struct {
	CityID      string          `json:"city_id"`
	DisplayName string          `json:"display_name"`
	Timezone    string          `json:"timezone"`
	BBox        BBox            `json:"bbox"`
	Areas       map[string]BBox `json:"-"`
	DefaultArea string          `json:"-"`
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) Center() (lat, lon float64) {
	return (c.BBox.MinLat + c.BBox.MaxLat) / 2, (c.BBox.MinLon + c.BBox.MaxLon) / 2
}

// AreaFor returns the snapshot area covering the coordinate, falling back to
// the city-wide default area.
func (c Config) AreaFor(lat, lon float64) string {
	best := c.DefaultArea
	for name, box := range c.Areas {
		if name == c.DefaultArea {
			continue
		}
		if box.Contains(lat, lon) {
			// Prefer the tighter area over the city-wide one.
			if best == c.DefaultArea {
				best = name
			}
		}
	}
	return best
}

var configs = map[string]Config{
	"copenhagen": {
		CityID:      "copenhagen",
		DisplayName: "Copenhagen",
		Timezone:    "Europe/Copenhagen",
		BBox:        BBox{MinLon: 12.50, MinLat: 55.66, MaxLon: 12.64, MaxLat: 55.73},
		Areas: map[string]BBox{
			"core-cph":      {MinLon: 12.500, MinLat: 55.660, MaxLon: 12.640, MaxLat: 55.730},
			"indre-by":      {MinLon: 12.560, MinLat: 55.675, MaxLon: 12.600, MaxLat: 55.695},
			"norrebro":      {MinLon: 12.520, MinLat: 55.680, MaxLon: 12.590, MaxLat: 55.720},
			"frederiksberg": {MinLon: 12.500, MinLat: 55.660, MaxLon: 12.560, MaxLat: 55.700},
			"osterbro":      {MinLon: 12.560, MinLat: 55.690, MaxLon: 12.640, MaxLat: 55.730},
		},
		DefaultArea: "core-cph",
	},
}

// Get returns the config for a city id, defaulting to copenhagen for unknown ids.
func Get(cityID string) Config {
	if cfg, ok := configs[cityID]; ok {
		return cfg
	}
	return configs["copenhagen"]
}

// All returns every configured city in a stable order.
func All() []Config {
	out := make([]Config, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CityID < out[j].CityID })
	return out
}
