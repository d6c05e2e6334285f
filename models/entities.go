package models

import "time"

// AuctionLot is keyed by (Source, CentreName, LotNo, AuctionDate).
type AuctionLot struct {
	Source      string
	CentreName  string
	LotNo       string
	GardenName  string
	Grade       string
	Quantity    float64
	Price       float64
	Currency    string
	AuctionDate time.Time
	Broker      string
	Warehouse   string
	SourceURL   string
}

// MarketReport is keyed by (Source, CentreName, WeekNumber, Year).
type MarketReport struct {
	Source              string
	CentreName          string
	Region              string
	Currency            string
	WeekNumber          int
	Year                int
	TotalOfferedKg      float64
	TotalSoldKg         float64
	TotalLots           int
	AuctionAveragePrice float64
	PercentSold         float64
	PercentUnsold       float64
	DataQuality         string
	Payload             []byte
}

// NewsArticle is keyed by (Title, Source, PublishDate).
type NewsArticle struct {
	Title       string
	Source      string
	URL         string
	Summary     string
	Country     string
	Category    string
	PublishDate time.Time
}

// WeeklyPriceAnalytic is keyed by (CentreName, WeekNumber, Year).
type WeeklyPriceAnalytic struct {
	CentreName   string
	WeekNumber   int
	Year         int
	Currency     string
	AveragePrice float64
	TotalVolume  float64
	TotalLots    int
}

// AuctionCentre is keyed by CentreName.
type AuctionCentre struct {
	CentreName string
	Region     string
	Currency   string
}

type SystemHealth struct {
	RunID           string
	CapturedAt      time.Time
	CPUPercent      float64
	MemoryPercent   float64
	SourcesOK       int
	SourcesFailed   int
	ResultsOK       int
	ResultsFailed   int
	DurationSeconds float64
}

type DataQualityLog struct {
	RunID            string
	LoggedAt         time.Time
	TotalRecords     int
	SuccessRate      float64
	ValidationErrors []string
}
