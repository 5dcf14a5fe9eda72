package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_VolumeUnits(t *testing.T) {
	p := New()

	tests := []struct {
		name   string
		input  string
		wantML float64
	}{
		{"milliliters compact", "Tito's Vodka 750ML", 750},
		{"milliliters spaced", "Titos Handmade Vodka 750 mL", 750},
		{"liters", "Jack Daniels 1.75L", 1750},
		{"liters word", "Coke 2 liter", 2000},
		{"ounces", "Corona Extra 12oz", 12 * 29.5735},
		{"gallon", "Carlo Rossi 1 Gallon", 3785.41},
		{"pint", "Fireball 1 pint", 473.176},
		{"quart", "Old Crow 1 quart", 946.353},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := p.Parse(tt.input)
			require.NotNil(t, f.VolumeML)
			assert.InDelta(t, tt.wantML, *f.VolumeML, 0.001)
		})
	}
}

func TestParse_NoVolume(t *testing.T) {
	p := New()
	f := p.Parse("Corona Extra")
	assert.Nil(t, f.VolumeML)
}

func TestParse_FirstVolumeMatchWins(t *testing.T) {
	p := New()
	// Both ml and oz present; the ml pattern is tried first.
	f := p.Parse("Mixer 750ml 25oz case")
	require.NotNil(t, f.VolumeML)
	assert.InDelta(t, 750, *f.VolumeML, 0.001)
}

func TestParse_PackageCount(t *testing.T) {
	p := New()

	tests := []struct {
		input string
		want  int
	}{
		{"Corona Extra 12pk 12oz", 12},
		{"Corona Extra 6 pack", 6},
		{"Corona Extra 6-pack", 6},
		{"Bud Light 24 bottles", 24},
		{"Bud Light 24 btl", 24},
		{"Modelo case of 24", 24},
		{"Modelo 12 ct", 12},
		{"Modelo 12 count", 12},
		{"Tito's Vodka 750ML", 1},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Parse(tt.input).PackageCount)
		})
	}
}

func TestParse_TokensAndBrand(t *testing.T) {
	p := New()

	f := p.Parse("Tito's Vodka 750ML")
	assert.Equal(t, []string{"titos", "vodka"}, f.Tokens)
	assert.Equal(t, "titos vodka", f.BrandGuess)
	assert.Equal(t, "titos vodka", f.NormalizedName)

	f = p.Parse("Titos Handmade Vodka 750 mL")
	assert.Equal(t, []string{"titos", "handmade", "vodka"}, f.Tokens)
	assert.Equal(t, "titos handmade", f.BrandGuess)
}

func TestParse_SingleTokenBrand(t *testing.T) {
	p := New()
	f := p.Parse("Heineken 12pk 12oz")
	assert.Equal(t, []string{"heineken"}, f.Tokens)
	assert.Equal(t, "heineken", f.BrandGuess)
}

func TestParse_DropsShortTokens(t *testing.T) {
	p := New()
	f := p.Parse("Brand X A1 Reserve")
	// "x" is dropped, "a1" survives.
	assert.Equal(t, []string{"brand", "a1", "reserve"}, f.Tokens)
}

func TestParse_Diacritics(t *testing.T) {
	p := New()
	f := p.Parse("Café Patrón 750ml")
	assert.Equal(t, []string{"cafe", "patron"}, f.Tokens)
}

func TestParse_MalformedDegradesGracefully(t *testing.T) {
	p := New()

	for _, input := range []string{"", "   ", "!!!", "@#$%^&*"} {
		f := p.Parse(input)
		assert.Empty(t, f.BrandGuess)
		assert.Nil(t, f.VolumeML)
		assert.Equal(t, 1, f.PackageCount)
		assert.Empty(t, f.Tokens)
		assert.Empty(t, f.NormalizedName)
	}
}
