package forecast

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/domain"
)

// code is the provider's "cod" field; it arrives as a string on success and
// as a number on some error responses.
type code string

func (c *code) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = code(n.String())
	return nil
}

// forecastResponse mirrors the fields of /data/2.5/forecast that we consume.
type forecastResponse struct {
	Cod     code   `json:"cod"`
	Message any    `json:"message"`
	List    []item `json:"list"`
	City    city   `json:"city"`
}

type item struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

type city struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	Coord   struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Sunrise int64 `json:"sunrise"`
	Sunset  int64 `json:"sunset"`
}

func (c city) place() domain.Place {
	return domain.Place{City: c.Name, Country: c.Country, Lat: c.Coord.Lat, Lon: c.Coord.Lon}
}

// snapshot extracts the first domain.SampleCount entries.
func (r *forecastResponse) snapshot() (*domain.ForecastSnapshot, error) {
	if len(r.List) < domain.SampleCount {
		return nil, &shortError{got: len(r.List)}
	}
	s := &domain.ForecastSnapshot{
		Samples: make([]domain.Sample, 0, domain.SampleCount),
		Sunrise: time.Unix(r.City.Sunrise, 0).UTC(),
		Sunset:  time.Unix(r.City.Sunset, 0).UTC(),
		Place:   r.City.place(),
	}
	for _, it := range r.List[:domain.SampleCount] {
		smp := domain.Sample{
			Time:      time.Unix(it.Dt, 0).UTC(),
			Temp:      it.Main.Temp,
			FeelsLike: it.Main.FeelsLike,
		}
		if len(it.Weather) > 0 {
			smp.Icon = it.Weather[0].Icon
			smp.Main = it.Weather[0].Main
			smp.Description = it.Weather[0].Description
		}
		s.Samples = append(s.Samples, smp)
	}
	return s, nil
}

type shortError struct{ got int }

func (e *shortError) Error() string {
	return domain.ErrShortForecast.Error() + ": got " + strconv.Itoa(e.got) + " entries, need " + strconv.Itoa(domain.SampleCount)
}

func (e *shortError) Unwrap() error { return domain.ErrShortForecast }
