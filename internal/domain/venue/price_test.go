package venue

import "testing"

func TestParsePriceTier(t *testing.T) {
	tests := []struct {
		in      string
		want    PriceTier
		wantErr bool
	}{
		{"", PriceUnknown, false},
		{"?", PriceUnknown, false},
		{"$", PriceCheap, false},
		{"$$$$", PriceLuxury, false},
		{"2", PriceModerate, false},
		{" 3 ", PriceExpensive, false},
		{"$$$$$", PriceUnknown, true},
		{"7", PriceUnknown, true},
		{"cheap", PriceUnknown, true},
	}
	for _, tc := range tests {
		got, err := ParsePriceTier(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParsePriceTier(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParsePriceTier(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestPriceTier_String(t *testing.T) {
	if PriceModerate.String() != "$$" {
		t.Errorf("PriceModerate.String() = %q", PriceModerate.String())
	}
	if PriceUnknown.String() != "?" {
		t.Errorf("PriceUnknown.String() = %q", PriceUnknown.String())
	}
}
