package scraper

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teatrade-scraper/config"
	"teatrade-scraper/extract"
	"teatrade-scraper/fetch"
	"teatrade-scraper/utils"
)

const atbPage = `<html><head><title>ATB Auction Prices</title></head><body>
<p>Sale 32: best BP1 at 345 cents, average 2.80 USD. Offered 12,500 kg.</p>
<table><thead><tr><th>Lot</th><th>Garden</th><th>Price</th></tr></thead>
<tbody><tr><td>101</td><td>Kangaita</td><td>3.10</td></tr></tbody></table>
<table><tr><td>Total</td><td>12,500 kg</td></tr></table>
</body></html>`

var fixedNow = time.Date(2024, 8, 9, 10, 0, 0, 0, time.UTC)

type delayRecorder struct {
	delays []time.Duration
}

func (r *delayRecorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func quietLogger() *utils.Logger {
	return utils.NewLoggerWith(utils.LoggerOptions{Writer: &bytes.Buffer{}, Level: slog.LevelDebug})
}

func newDeps(rec *delayRecorder, driven DrivenFetcher) Deps {
	log := quietLogger()
	pacer := utils.NewPacerWithSleep(log, rec.sleep)
	return Deps{
		Static:         fetch.NewStaticFetcher(pacer, log, fetch.StaticOptions{Timeout: 5 * time.Second}),
		Driven:         driven,
		Pacer:          pacer,
		Logger:         log,
		MaxRetries:     2,
		DelayMin:       8 * time.Second,
		DelayMax:       45 * time.Second,
		DrivenFallback: true,
		Now:            func() time.Time { return fixedNow },
	}
}

func serve(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// pageBrowser is a fake browser whose markup can depend on the selected option.
type pageBrowser struct {
	html      string
	byOption  map[string]string
	selects   map[string][]string
	navErr    error
	selected  string
	closed    int
	navigated []string
}

func (b *pageBrowser) Navigate(_ context.Context, url string) error {
	b.navigated = append(b.navigated, url)
	return b.navErr
}

func (b *pageBrowser) ReadyState(context.Context) (string, error) { return "complete", nil }

func (b *pageBrowser) HTML(context.Context) (string, error) {
	if h, ok := b.byOption[b.selected]; ok {
		return h, nil
	}
	return b.html, nil
}

func (b *pageBrowser) HasElement(_ context.Context, selector string) (bool, error) {
	_, ok := b.selects[selector]
	return ok, nil
}

func (b *pageBrowser) ChooseOption(_ context.Context, selector, target string) (bool, error) {
	for _, opt := range b.selects[selector] {
		if strings.Contains(strings.ToLower(opt), strings.ToLower(target)) {
			b.selected = opt
			return true, nil
		}
	}
	return false, nil
}

func (b *pageBrowser) Close() error {
	b.closed++
	return nil
}

func drivenWith(b fetch.Browser, rec *delayRecorder) *fetch.DrivenFetcher {
	log := quietLogger()
	factory := func(context.Context, utils.Identity) (fetch.Browser, error) { return b, nil }
	return fetch.NewDrivenFetcher(factory, utils.NewPacerWithSleep(log, rec.sleep), log, fetch.DrivenOptions{Sleep: rec.sleep})
}

func TestTabularExtractsTablesAndCandidates(t *testing.T) {
	srv := serve(t, map[string]string{"/Docs/auctionprices": atbPage})
	src := config.Source{
		Name: "atb_ltd", Family: config.FamilyTabular, BaseURL: srv.URL, AuctionCenter: "ATB_Mombasa",
		Endpoints: []config.Endpoint{{DataType: "auction_prices", Path: "/Docs/auctionprices"}},
	}

	results, err := NewTabular(src, newDeps(&delayRecorder{}, nil)).Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	require.True(t, r.Success, r.ErrorMessage)
	assert.Equal(t, "ATB_Mombasa", r.AuctionCenter)
	assert.Equal(t, "auction_prices", r.DataType)
	assert.Equal(t, fixedNow, r.Timestamp)
	assert.Equal(t, "ATB Auction Prices", r.RawData["page_title"])
	assert.Equal(t, []extract.Row{{"Lot": "101", "Garden": "Kangaita", "Price": "3.10"}}, r.RawData["table_0"])
	assert.Contains(t, r.RawData, "table_1")
	assert.Equal(t, []string{"345", "2.80"}, r.RawData["extracted_prices"])
	assert.Equal(t, []string{"12,500", "12,500"}, r.RawData["extracted_volumes"])
	assert.Equal(t, fetch.MethodStatic, r.Metadata["fetch_method"])
	assert.Equal(t, "atb_ltd", r.Metadata[SourceKey])
}

func TestTabularStatusErrorWithoutFallbackFails(t *testing.T) {
	srv := serve(t, map[string]string{})
	src := config.Source{
		Name: "atb_ltd", Family: config.FamilyTabular, BaseURL: srv.URL, AuctionCenter: "ATB_Mombasa",
		Endpoints: []config.Endpoint{{DataType: "auction_prices", Path: "/missing"}},
	}

	results, err := NewTabular(src, newDeps(&delayRecorder{}, nil)).Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].ErrorMessage, "404")
	assert.True(t, results[0].Consistent())
}

func TestTabularFallsBackToBrowserForEmptyPage(t *testing.T) {
	srv := serve(t, map[string]string{"/Docs/auctionprices": "<html><head><title>Loading</title></head><body></body></html>"})
	src := config.Source{
		Name: "atb_ltd", Family: config.FamilyTabular, BaseURL: srv.URL, AuctionCenter: "ATB_Mombasa",
		DrivenFallback: true,
		Endpoints:      []config.Endpoint{{DataType: "auction_prices", Path: "/Docs/auctionprices"}},
	}
	rec := &delayRecorder{}
	browser := &pageBrowser{html: atbPage}

	results, err := NewTabular(src, newDeps(rec, drivenWith(browser, rec))).Scrape(context.Background())
	require.NoError(t, err)
	require.True(t, results[0].Success)
	assert.Contains(t, results[0].RawData, "table_0")
	assert.Equal(t, fetch.MethodDriven, results[0].Metadata["fetch_method"])
	assert.Equal(t, 1, browser.closed)
}

func TestScrapePausesBetweenTargets(t *testing.T) {
	srv := serve(t, map[string]string{"/a": atbPage, "/b": atbPage, "/c": atbPage})
	src := config.Source{
		Name: "atb_ltd", Family: config.FamilyTabular, BaseURL: srv.URL,
		DelaySeconds: config.DelayBounds{Min: 30, Max: 90},
		Endpoints: []config.Endpoint{
			{DataType: "a", Path: "/a"}, {DataType: "b", Path: "/b"}, {DataType: "c", Path: "/c"},
		},
	}
	rec := &delayRecorder{}

	results, err := NewTabular(src, newDeps(rec, nil)).Scrape(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 3)
	require.Len(t, rec.delays, 2)
	for _, d := range rec.delays {
		assert.GreaterOrEqual(t, d, 30*time.Second)
		assert.LessOrEqual(t, d, 90*time.Second)
	}
}

func TestScrapeStopsOnCancelledContext(t *testing.T) {
	srv := serve(t, map[string]string{"/a": atbPage, "/b": atbPage})
	src := config.Source{
		Name: "atb_ltd", Family: config.FamilyTabular, BaseURL: srv.URL,
		Endpoints: []config.Endpoint{{DataType: "a", Path: "/a"}, {DataType: "b", Path: "/b"}},
	}
	deps := newDeps(&delayRecorder{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	deps.Pacer = utils.NewPacerWithSleep(deps.Logger, func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	})

	results, err := NewTabular(src, deps).Scrape(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 1)
}

func TestDropdownSelectsCenter(t *testing.T) {
	src := config.Source{
		Name: "j_thomas", Family: config.FamilyDropdown, BaseURL: "https://jthomasindia.com",
		CenterPrefix: "JThomas", Centers: []string{"Kolkata", "Guwahati"},
		Endpoints: []config.Endpoint{{DataType: "auction_prices", Path: "/auction_prices.php"}},
	}
	rec := &delayRecorder{}
	browser := &pageBrowser{
		html:    `<html><body><p>No center chosen</p><table></table></body></html>`,
		selects: map[string][]string{"select[id*='center']": {"Select", "KOLKATA", "GUWAHATI"}},
		byOption: map[string]string{
			"KOLKATA":  `<html><body><p>Kolkata CTC dust 245 cents, 8,000 kg sold</p><table><tr><td>x</td></tr></table><table></table></body></html>`,
			"GUWAHATI": `<html><body><p>Guwahati leaf</p></body></html>`,
		},
	}

	results, err := NewDropdown(src, newDeps(rec, drivenWith(browser, rec))).Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	kol := results[0]
	require.True(t, kol.Success)
	assert.Equal(t, "JThomas_Kolkata", kol.AuctionCenter)
	assert.Equal(t, "Kolkata", kol.RawData["auction_center"])
	assert.Equal(t, "auction_prices", kol.RawData["data_type"])
	assert.Contains(t, kol.RawData, "table_0")
	assert.NotContains(t, kol.RawData, "table_1")
	assert.Equal(t, []string{"245"}, kol.RawData["extracted_prices"])
	assert.Equal(t, []string{"8,000"}, kol.RawData["extracted_volumes"])
	assert.Equal(t, true, kol.Metadata["center_selected"])

	assert.Equal(t, "JThomas_Guwahati", results[1].AuctionCenter)
	assert.Equal(t, 2, browser.closed)
}

func TestDropdownWithoutSelectorStillExtracts(t *testing.T) {
	src := config.Source{
		Name: "j_thomas", Family: config.FamilyDropdown, BaseURL: "https://jthomasindia.com",
		CenterPrefix: "JThomas", Centers: []string{"Siliguri"},
		Endpoints: []config.Endpoint{{DataType: "market_report", Path: "/market_report.php"}},
	}
	rec := &delayRecorder{}
	browser := &pageBrowser{html: `<html><body>Market closed this week</body></html>`}

	results, err := NewDropdown(src, newDeps(rec, drivenWith(browser, rec))).Scrape(context.Background())
	require.NoError(t, err)
	require.True(t, results[0].Success)
	assert.Equal(t, "Market closed this week", results[0].RawData["page_content"])
	assert.Equal(t, false, results[0].Metadata["center_selected"])
}

func TestDropdownNavigationFailure(t *testing.T) {
	src := config.Source{
		Name: "j_thomas", Family: config.FamilyDropdown, BaseURL: "https://jthomasindia.com",
		Centers:   []string{"Kolkata"},
		Endpoints: []config.Endpoint{{DataType: "auction_prices", Path: "/auction_prices.php"}},
	}
	rec := &delayRecorder{}
	browser := &pageBrowser{navErr: errors.New("net::ERR_CONNECTION_REFUSED")}

	results, err := NewDropdown(src, newDeps(rec, drivenWith(browser, rec))).Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].ErrorMessage, fetch.ErrNavigationFailed.Error())
	assert.Len(t, browser.navigated, 2)
	assert.Equal(t, 1, browser.closed)
}

func TestDropdownWithoutBrowserFails(t *testing.T) {
	src := config.Source{
		Name: "j_thomas", Family: config.FamilyDropdown, BaseURL: "https://jthomasindia.com",
		Endpoints: []config.Endpoint{{DataType: "auction_prices", Path: "/p"}},
	}
	results, err := NewDropdown(src, newDeps(&delayRecorder{}, nil)).Scrape(context.Background())
	require.NoError(t, err)
	assert.False(t, results[0].Success)
}

func TestReportsExtractsLinksAndSections(t *testing.T) {
	section := strings.Repeat("Ex-estate offerings totalled 1.2M kg with firm demand. ", 3)
	srv := serve(t, map[string]string{"/market-reports": `<html><head><title>Forbes Tea Reports</title></head><body>
		<a href="/reports/sale-32.pdf">Sale 32</a>
		<a href="averages.xls">Averages</a>
		<div class="market-report">` + section + `</div>
	</body></html>`})
	src := config.Source{
		Name: "sri_lankan", Family: config.FamilyReports,
		Endpoints: []config.Endpoint{{
			Key: "forbes_tea", DataType: "market_reports",
			URL: srv.URL + "/market-reports", AuctionCenter: "SriLanka_forbes_tea",
		}},
	}

	results, err := NewReports(src, newDeps(&delayRecorder{}, nil)).Scrape(context.Background())
	require.NoError(t, err)
	r := results[0]
	require.True(t, r.Success)
	assert.Equal(t, "SriLanka_forbes_tea", r.AuctionCenter)
	assert.Equal(t, "forbes_tea", r.RawData["source"])
	assert.Equal(t, map[string]any{"url": srv.URL + "/reports/sale-32.pdf", "text": "Sale 32"}, r.RawData["report_link_0"])
	assert.Equal(t, map[string]any{"url": srv.URL + "/averages.xls", "text": "Averages", "type": "xls"}, r.RawData["download_link_1"])
	assert.Contains(t, r.RawData["report_section_0"], "Ex-estate offerings")
}

func TestNewsCollectsArticles(t *testing.T) {
	srv := serve(t, map[string]string{"/news": `<html><head><title>Tea Board</title></head><body>
		<h2><a href="/n/1">Tea exports climb 8%</a></h2>
		<h2><a href="/n/1-dup">Tea exports climb 8%</a></h2>
		<h3>Coffee prices fall</h3>
	</body></html>`})
	src := config.Source{
		Name: "tea_news", Family: config.FamilyNews,
		Endpoints: []config.Endpoint{{
			Key: "Tea Board India", DataType: "news", URL: srv.URL + "/news",
			AuctionCenter: "News_India", Country: "India",
		}},
	}

	results, err := NewNews(src, newDeps(&delayRecorder{}, nil)).Scrape(context.Background())
	require.NoError(t, err)
	r := results[0]
	require.True(t, r.Success)
	assert.Equal(t, "News_India", r.AuctionCenter)
	assert.Equal(t, "India", r.RawData["country"])
	assert.Equal(t, []map[string]any{{
		"title": "Tea exports climb 8%", "url": srv.URL + "/n/1", "country": "India",
	}}, r.RawData["articles"])
}

func TestStepRecoversPanics(t *testing.T) {
	b := newBase(config.Source{Name: "x"}, newDeps(&delayRecorder{}, nil))
	ran := false
	assert.NotPanics(t, func() {
		b.step("explode", func() { panic("bad selector") })
		b.step("next", func() { ran = true })
	})
	assert.True(t, ran)
}

func TestBuildAdapters(t *testing.T) {
	sources, err := config.LoadSources("")
	require.NoError(t, err)

	adapters, err := BuildAdapters(sources, newDeps(&delayRecorder{}, nil))
	require.NoError(t, err)
	require.Len(t, adapters, len(sources))

	assert.IsType(t, &Tabular{}, adapters[0])
	assert.IsType(t, &Dropdown{}, adapters[1])
	assert.IsType(t, &Reports{}, adapters[2])
	assert.IsType(t, &News{}, adapters[3])
	assert.Equal(t, "atb_ltd", adapters[0].Name())

	_, err = NewAdapter(config.Source{Name: "x", Family: "pdf"}, Deps{})
	assert.Error(t, err)
}

func TestDropdownTargetsCrossCentersAndEndpoints(t *testing.T) {
	src := config.Source{
		Name: "j_thomas", BaseURL: "https://jthomasindia.com", CenterPrefix: "JThomas",
		Centers:   []string{"Kolkata", "Guwahati"},
		Endpoints: []config.Endpoint{{DataType: "a", Path: "/a"}, {DataType: "b", Path: "/b"}},
	}
	b := newBase(src, newDeps(&delayRecorder{}, nil))
	targets := b.targets()
	require.Len(t, targets, 4)
	assert.Equal(t, Target{
		URL: "https://jthomasindia.com/b", AuctionCenter: "JThomas_Kolkata", DataType: "b", Center: "Kolkata",
	}, targets[1])
}
