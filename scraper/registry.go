package scraper

import (
	"fmt"

	"teatrade-scraper/config"
)

// BuildAdapters creates one adapter per configured source, preserving registry order.
func BuildAdapters(sources []config.Source, deps Deps) ([]Adapter, error) {
	adapters := make([]Adapter, 0, len(sources))
	for _, s := range sources {
		a, err := NewAdapter(s, deps)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}

// NewAdapter selects the adapter implementation for a source's family.
func NewAdapter(source config.Source, deps Deps) (Adapter, error) {
	switch source.Family {
	case config.FamilyTabular:
		return NewTabular(source, deps), nil
	case config.FamilyDropdown:
		return NewDropdown(source, deps), nil
	case config.FamilyReports:
		return NewReports(source, deps), nil
	case config.FamilyNews:
		return NewNews(source, deps), nil
	}
	return nil, fmt.Errorf("scraper: source %s has unknown family %q", source.Name, source.Family)
}
