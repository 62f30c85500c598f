package domain

import "time"

// SampleCount is the number of 3-hour samples kept from one provider response.
const SampleCount = 7

// Sample is one 3-hour forecast point.
type Sample struct {
	Time        time.Time
	Temp        float64
	FeelsLike   float64
	Icon        string
	Main        string
	Description string
}

// ForecastSnapshot is the forecast extracted from one provider response.
// Samples are ordered by time.
type ForecastSnapshot struct {
	Samples []Sample
	Sunrise time.Time
	Sunset  time.Time
	Place   Place
}

// precipitation lists the condition groups that warrant an umbrella.
var precipitation = map[string]struct{}{
	"Rain":         {},
	"Thunderstorm": {},
	"Drizzle":      {},
}

// WantsUmbrella reports whether any sample's condition is rain-like.
func (s *ForecastSnapshot) WantsUmbrella() bool {
	if s == nil {
		return false
	}
	for _, smp := range s.Samples {
		if _, ok := precipitation[smp.Main]; ok {
			return true
		}
	}
	return false
}

// Times returns sample timestamps, index-aligned with the other views.
func (s *ForecastSnapshot) Times() []time.Time {
	out := make([]time.Time, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.Time
	}
	return out
}

func (s *ForecastSnapshot) Temps() []float64 {
	out := make([]float64, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.Temp
	}
	return out
}

func (s *ForecastSnapshot) FeelsLike() []float64 {
	out := make([]float64, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.FeelsLike
	}
	return out
}

func (s *ForecastSnapshot) Icons() []string {
	out := make([]string, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.Icon
	}
	return out
}

func (s *ForecastSnapshot) Conditions() []string {
	out := make([]string, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.Main
	}
	return out
}

// IsNight reports whether t falls at or after sunset or at or before sunrise.
func (s *ForecastSnapshot) IsNight(t time.Time) bool {
	return !t.Before(s.Sunset) || !t.After(s.Sunrise)
}
