package services

import (
	"encoding/json"
	"fmt"

	"teatrade-scraper/models"
)

// MarketReportFromReport flattens a consolidated report into its database row. The
// full document is kept as the payload.
func MarketReportFromReport(source, center string, report *models.ConsolidatedReport) (*models.MarketReport, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report %s: %w", center, err)
	}
	s := report.Summary
	return &models.MarketReport{
		Source:              source,
		CentreName:          center,
		Region:              report.Metadata.Region,
		Currency:            report.Metadata.Currency,
		WeekNumber:          report.Metadata.WeekNumber,
		Year:                report.Metadata.Year,
		TotalOfferedKg:      s.TotalOfferedKg,
		TotalSoldKg:         s.TotalSoldKg,
		TotalLots:           s.TotalLots,
		AuctionAveragePrice: s.AuctionAveragePrice,
		PercentSold:         s.PercentSold,
		PercentUnsold:       s.PercentUnsold,
		DataQuality:         report.Metadata.DataQuality,
		Payload:             payload,
	}, nil
}

// WeeklyAnalyticFromReport derives the per-centre weekly price row of a report.
func WeeklyAnalyticFromReport(center string, report *models.ConsolidatedReport) *models.WeeklyPriceAnalytic {
	return &models.WeeklyPriceAnalytic{
		CentreName:   center,
		WeekNumber:   report.Metadata.WeekNumber,
		Year:         report.Metadata.Year,
		Currency:     report.Metadata.Currency,
		AveragePrice: report.Summary.AuctionAveragePrice,
		TotalVolume:  report.Summary.TotalOfferedKg,
		TotalLots:    report.Summary.TotalLots,
	}
}

// CentreFromReport returns the auction centre row of a report.
func CentreFromReport(center string, report *models.ConsolidatedReport) *models.AuctionCentre {
	return &models.AuctionCentre{
		CentreName: center,
		Region:     report.Metadata.Region,
		Currency:   report.Metadata.Currency,
	}
}
