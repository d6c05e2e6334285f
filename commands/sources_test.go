package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teatrade-scraper/config"
)

func TestPrintSources(t *testing.T) {
	sources, err := config.LoadSources("")
	require.NoError(t, err)

	var buf bytes.Buffer
	printSources(&buf, sources)

	out := buf.String()
	assert.Contains(t, out, "atb_ltd")
	assert.Contains(t, out, "https://atbltd.com/Docs/auctionprices")
	assert.Contains(t, out, "JThomas_Kolkata, JThomas_Guwahati, JThomas_Siliguri")
}

func TestLoadSourcesFiltersByName(t *testing.T) {
	cfg := &config.Config{}
	picked, err := loadSources(cfg, []string{"j_thomas"})
	require.NoError(t, err)
	require.Len(t, picked, 1)
	assert.Equal(t, "j_thomas", picked[0].Name)

	_, err = loadSources(cfg, []string{"nope"})
	assert.ErrorContains(t, err, "nope")
}
