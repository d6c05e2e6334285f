package models

import "time"

// ScrapingResult is the envelope every extraction adapter produces for one fetched page.
// RawData is adapter-shaped; the consolidation stage maps it.
type ScrapingResult struct {
	SourceURL     string         `json:"source_url"`
	AuctionCenter string         `json:"auction_center"`
	DataType      string         `json:"data_type"`
	Timestamp     time.Time      `json:"timestamp"`
	RawData       map[string]any `json:"raw_data"`
	ProcessedData map[string]any `json:"processed_data"`
	Metadata      map[string]any `json:"metadata"`
	Success       bool           `json:"success"`
	ErrorMessage  string         `json:"error_message,omitempty"`
}

// NewSuccess builds a successful result. An empty raw mapping cannot be a success, so it
// is turned into a failure instead.
func NewSuccess(sourceURL, center, dataType string, at time.Time, raw map[string]any) *ScrapingResult {
	if len(raw) == 0 {
		return NewFailure(sourceURL, center, dataType, at, "no data extracted")
	}
	return &ScrapingResult{
		SourceURL:     sourceURL,
		AuctionCenter: center,
		DataType:      dataType,
		Timestamp:     at,
		RawData:       raw,
		Success:       true,
	}
}

// NewFailure builds an unsuccessful result. The message is never empty.
func NewFailure(sourceURL, center, dataType string, at time.Time, message string) *ScrapingResult {
	if message == "" {
		message = "unknown error"
	}
	return &ScrapingResult{
		SourceURL:     sourceURL,
		AuctionCenter: center,
		DataType:      dataType,
		Timestamp:     at,
		RawData:       map[string]any{},
		Success:       false,
		ErrorMessage:  message,
	}
}

// Consistent reports whether the success flag agrees with the raw data and error message.
func (r *ScrapingResult) Consistent() bool {
	if r.Success {
		return len(r.RawData) > 0 && r.ErrorMessage == ""
	}
	return r.ErrorMessage != ""
}

// SetMetadata records a metadata entry, allocating the map on first use.
func (r *ScrapingResult) SetMetadata(key string, value any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
}

// Partition splits results into successful and failed ones, preserving order.
func Partition(results []*ScrapingResult) (successful, failed []*ScrapingResult) {
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Success {
			successful = append(successful, r)
		} else {
			failed = append(failed, r)
		}
	}
	return successful, failed
}
