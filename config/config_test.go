package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MAX_RETRIES", "")
	t.Setenv("SOURCE_COOLDOWN", "")

	cfg := Load()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 300*time.Second, cfg.SourceCooldown)
	assert.Equal(t, 15*time.Second, cfg.NavigationDelay)
	assert.Equal(t, 20*time.Second, cfg.ReadyTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("SOURCE_COOLDOWN", "2m")
	t.Setenv("PAGE_DELAY_MIN", "12")
	t.Setenv("HEADLESS", "false")
	t.Setenv("PAGE_DELAY_MAX", "not-a-duration")

	cfg := Load()
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 2*time.Minute, cfg.SourceCooldown)
	assert.Equal(t, 12*time.Second, cfg.PageDelayMin)
	assert.Equal(t, 45*time.Second, cfg.PageDelayMax)
	assert.False(t, cfg.Headless)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost: "db", PostgresPort: "5432", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "tea", PostgresSSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=tea sslmode=disable", cfg.DSN())
}

func TestEmbeddedSources(t *testing.T) {
	sources, err := LoadSources("")
	require.NoError(t, err)

	byName := map[string]Source{}
	for _, s := range sources {
		byName[s.Name] = s
	}
	require.Contains(t, byName, "atb_ltd")
	require.Contains(t, byName, "j_thomas")

	atb := byName["atb_ltd"]
	assert.Equal(t, FamilyTabular, atb.Family)
	assert.Equal(t, "https://atbltd.com/Docs/auctionprices", atb.URLFor(atb.Endpoints[1]))
	assert.Equal(t, "ATB_Mombasa", atb.CenterFor(atb.Endpoints[0], ""))

	jt := byName["j_thomas"]
	assert.Equal(t, "JThomas_Kolkata", jt.CenterFor(jt.Endpoints[0], "Kolkata"))
}

func TestParseSourcesRejectsUnknownFamily(t *testing.T) {
	_, err := ParseSources([]byte(`{sources: [{name: "x", family: "pdf", endpoints: [{url: "http://a"}]}]}`))
	assert.Error(t, err)
}

func TestDelayBoundsRange(t *testing.T) {
	min, max := DelayBounds{}.Range(8*time.Second, 45*time.Second)
	assert.Equal(t, 8*time.Second, min)
	assert.Equal(t, 45*time.Second, max)

	min, max = DelayBounds{Min: 60, Max: 30}.Range(8*time.Second, 45*time.Second)
	assert.Equal(t, 60*time.Second, min)
	assert.Equal(t, 60*time.Second, max)
}
