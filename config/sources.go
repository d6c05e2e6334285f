package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/titanous/json5"
)

// Extraction families understood by the scraper registry.
const (
	FamilyTabular  = "tabular"
	FamilyDropdown = "dropdown"
	FamilyReports  = "reports"
	FamilyNews     = "news"
)

//go:embed sources.json5
var defaultSources []byte

// Source describes one auction house (or news group) and the pages scraped from it.
type Source struct {
	Name           string      `json:"name"`
	Family         string      `json:"family"`
	BaseURL        string      `json:"base_url"`
	AuctionCenter  string      `json:"auction_center"`
	CenterPrefix   string      `json:"center_prefix"`
	Centers        []string    `json:"centers"`
	Country        string      `json:"country"`
	MaxRetries     int         `json:"max_retries"`
	DrivenFallback bool        `json:"driven_fallback"`
	DelaySeconds   DelayBounds `json:"delay_seconds"`
	Endpoints      []Endpoint  `json:"endpoints"`
}

// Endpoint is a single page of a source. URL wins over BaseURL+Path when set.
type Endpoint struct {
	Key           string `json:"key"`
	DataType      string `json:"data_type"`
	Path          string `json:"path"`
	URL           string `json:"url"`
	AuctionCenter string `json:"auction_center"`
	Country       string `json:"country"`
}

// DelayBounds is the randomized pause, in seconds, between two requests of a source.
type DelayBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type registryFile struct {
	Sources []Source `json:"sources"`
}

// LoadSources parses the registry at path, or the embedded default when path is empty.
func LoadSources(path string) ([]Source, error) {
	data := defaultSources
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("sources: read %q: %w", path, err)
		}
		data = b
	}
	return ParseSources(data)
}

// ParseSources decodes a json5 registry document and validates every entry.
func ParseSources(data []byte) ([]Source, error) {
	var file registryFile
	if err := json5.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("sources: decode: %w", err)
	}
	for i, s := range file.Sources {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("sources: entry %d: %w", i, err)
		}
	}
	return file.Sources, nil
}

func (s Source) validate() error {
	if s.Name == "" {
		return fmt.Errorf("missing name")
	}
	switch s.Family {
	case FamilyTabular, FamilyDropdown, FamilyReports, FamilyNews:
	default:
		return fmt.Errorf("%s: unknown family %q", s.Name, s.Family)
	}
	if len(s.Endpoints) == 0 {
		return fmt.Errorf("%s: no endpoints", s.Name)
	}
	for _, e := range s.Endpoints {
		if e.URL == "" && (s.BaseURL == "" || e.Path == "") {
			return fmt.Errorf("%s: endpoint %q has no url", s.Name, e.DataType)
		}
	}
	return nil
}

// URLFor resolves the absolute URL of an endpoint.
func (s Source) URLFor(e Endpoint) string {
	if e.URL != "" {
		return e.URL
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(e.Path, "/")
}

// CenterFor returns the composite auction-center id of an endpoint, optionally for a
// dropdown center ("JThomas" + "Kolkata" -> "JThomas_Kolkata").
func (s Source) CenterFor(e Endpoint, center string) string {
	switch {
	case center != "" && s.CenterPrefix != "":
		return s.CenterPrefix + "_" + center
	case center != "":
		return center
	case e.AuctionCenter != "":
		return e.AuctionCenter
	case s.AuctionCenter != "":
		return s.AuctionCenter
	}
	return s.Name
}

// Range converts the bounds to durations, using the fallbacks for unset values.
func (d DelayBounds) Range(fallbackMin, fallbackMax time.Duration) (time.Duration, time.Duration) {
	min, max := fallbackMin, fallbackMax
	if d.Min > 0 {
		min = time.Duration(d.Min) * time.Second
	}
	if d.Max > 0 {
		max = time.Duration(d.Max) * time.Second
	}
	if max < min {
		max = min
	}
	return min, max
}
