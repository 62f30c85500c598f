package domain

// UserConfig represents per-chat forecast settings.
type UserConfig struct {
	City       string
	Country    string
	Lat        float64
	Lon        float64
	HasCoords  bool // coordinates come from a lookup or a shared location
	ReportTime Clock
	AlertTime  Clock
}

// Place is location metadata reported by the weather provider.
type Place struct {
	City    string
	Country string
	Lat     float64
	Lon     float64
}

// Query returns the fetch target for this config: coordinates once they are
// known precisely, otherwise the city name.
func (c UserConfig) Query() Query {
	if c.HasCoords {
		return Query{Lat: c.Lat, Lon: c.Lon, ByCoords: true}
	}
	return Query{City: c.City}
}

// WithPlace returns a copy of c pointing at p.
func (c UserConfig) WithPlace(p Place) UserConfig {
	c.City, c.Country = p.City, p.Country
	c.Lat, c.Lon = p.Lat, p.Lon
	c.HasCoords = true
	return c
}

// Query selects a forecast either by city name or by coordinates.
type Query struct {
	City     string
	Lat      float64
	Lon      float64
	ByCoords bool
}
