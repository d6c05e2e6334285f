package services

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teatrade-scraper/extract"
	"teatrade-scraper/models"
)

func TestCleanerParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"3.10", 3.10},
		{"USD 2,845.50", 2845.50},
		{"1,200 kg", 1200},
		{"", 0},
		{"withdrawn", 0},
	}
	for _, tt := range tests {
		if got := parseNumber(tt.raw); got != tt.want {
			t.Errorf("parseNumber(%q) = %.2f; want %.2f", tt.raw, got, tt.want)
		}
	}
}

func TestCleanerLotsFromTables(t *testing.T) {
	c := NewCleaner(newTestLogger())
	at := time.Date(2024, 8, 9, 14, 30, 0, 0, time.UTC)
	r := models.NewSuccess("https://atbltd.com/Docs/auctionprices", "ATB_Mombasa", "auction_prices", at,
		map[string]any{
			"table_0": []extract.Row{
				{"Lot No": "101", "Garden": " Kangaita ", "Grade": "BP1", "Price (USD)": "3.10", "Kgs": "1,200"},
				{"Lot No": "101", "Garden": "Kangaita", "Grade": "BP1", "Price (USD)": "3.10", "Kgs": "1,200"},
				{"Lot No": "102", "Garden": "", "Grade": "PF1", "Price (USD)": "withdrawn", "Kgs": "800"},
				{"Lot No": "", "Garden": "Gatura", "Grade": "PD", "Price (USD)": "2.50", "Kgs": "600"},
				{"Lot No": "103", "Garden": "Gatura", "Grade": "PD", "Price (USD)": "2.50", "Kgs": "600"},
			},
			"page_title": "Prices",
		})

	lots := c.Lots("atb_ltd", r)
	require.Len(t, lots, 2)

	first := lots[0]
	assert.Equal(t, "atb_ltd", first.Source)
	assert.Equal(t, "ATB_Mombasa", first.CentreName)
	assert.Equal(t, "101", first.LotNo)
	assert.Equal(t, "Kangaita", first.GardenName)
	assert.Equal(t, "BP1", first.Grade)
	assert.Equal(t, 3.10, first.Price)
	assert.Equal(t, 1200.0, first.Quantity)
	assert.Equal(t, "USD", first.Currency)
	assert.Equal(t, time.Date(2024, 8, 9, 0, 0, 0, 0, time.UTC), first.AuctionDate)

	assert.Equal(t, "103", lots[1].LotNo)
	assert.Equal(t, []string{"Gatura", "Kangaita"}, Gardens(lots))
}

func TestCleanerLotsFromDecodedRawFile(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"table_0": [{"Invoice": "55", "Mark": "Halmari", "Value": "412"}],
		"table_1": [{"column_0": "Total", "column_1": "412"}]
	}`), &raw))
	r := models.NewSuccess("https://jthomasindia.com/auction_prices.php", "JThomas_Kolkata", "auction_prices", time.Now(), raw)

	lots := NewCleaner(newTestLogger()).Lots("j_thomas", r)
	require.Len(t, lots, 1)
	assert.Equal(t, "55", lots[0].LotNo)
	assert.Equal(t, "Halmari", lots[0].GardenName)
	assert.Equal(t, 412.0, lots[0].Price)
	assert.Equal(t, "INR", lots[0].Currency)
}

func TestCleanerDuplicateKeepsFirstTableInPageOrder(t *testing.T) {
	raw := map[string]any{}
	for i := 0; i <= 10; i++ {
		raw[fmt.Sprintf("table_%d", i)] = []extract.Row{}
	}
	raw["table_2"] = []extract.Row{{"Lot": "7", "Garden": "Kangaita", "Price": "3.10"}}
	raw["table_10"] = []extract.Row{{"Lot": "7", "Garden": "Gatura", "Price": "2.50"}}
	r := models.NewSuccess("https://atbltd.com", "ATB_Mombasa", "auction_prices", time.Now(), raw)

	lots := NewCleaner(newTestLogger()).Lots("atb_ltd", r)
	require.Len(t, lots, 1)
	assert.Equal(t, "Kangaita", lots[0].GardenName)
}

func TestSortTableKeys(t *testing.T) {
	keys := []string{"table_10", "table_x", "table_2", "table_0"}
	sortTableKeys(keys)
	assert.Equal(t, []string{"table_0", "table_2", "table_10", "table_x"}, keys)
}

func TestCleanerIgnoresFailedResults(t *testing.T) {
	r := models.NewFailure("https://x", "ATB_Mombasa", "auction_prices", time.Now(), "timeout")
	assert.Empty(t, NewCleaner(newTestLogger()).Lots("atb_ltd", r))
	assert.Empty(t, NewCleaner(newTestLogger()).Lots("atb_ltd", nil))
}

func TestNormaliseText(t *testing.T) {
	assert.Equal(t, "Kangaita Estate", normaliseText("  Kangaita \n\t Estate "))
}
