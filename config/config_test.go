package config

import (
	"testing"
	"time"

	"tiger-trader/internal/model"
)

func TestParseMarkets(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []model.Market
	}{
		{"default pair", "HK,US", []model.Market{model.MarketHK, model.MarketUS}},
		{"lowercase and spaces", " hk , cn ", []model.Market{model.MarketHK, model.MarketCN}},
		{"unknown skipped", "HK,LSE", []model.Market{model.MarketHK}},
		{"all unknown falls back", "LSE,TSE", []model.Market{model.MarketHK, model.MarketUS}},
		{"empty falls back", "", []model.Market{model.MarketHK, model.MarketUS}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Markets: tt.raw}
			got := c.ParseMarkets()
			if len(got) != len(tt.want) {
				t.Fatalf("ParseMarkets(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseMarkets(%q)[%d] = %v, want %v", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGetHelpers(t *testing.T) {
	t.Setenv("TT_TEST_INT", "7")
	t.Setenv("TT_TEST_BAD_INT", "zero")
	t.Setenv("TT_TEST_DUR", "90s")
	t.Setenv("TT_TEST_BOOL", "false")

	if got := getInt("TT_TEST_INT", 5); got != 7 {
		t.Errorf("getInt = %d, want 7", got)
	}
	if got := getInt("TT_TEST_BAD_INT", 5); got != 5 {
		t.Errorf("getInt bad value = %d, want fallback 5", got)
	}
	if got := getInt("TT_TEST_MISSING", 5); got != 5 {
		t.Errorf("getInt missing = %d, want fallback 5", got)
	}
	if got := getDuration("TT_TEST_DUR", time.Minute); got != 90*time.Second {
		t.Errorf("getDuration = %v, want 90s", got)
	}
	if got := getBool("TT_TEST_BOOL", true); got {
		t.Error("getBool = true, want false from env")
	}
}
