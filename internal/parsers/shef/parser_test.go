package shef

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/nws"
	"nws_parser/internal/patterns"
)

var shefNow = time.Date(2023, 6, 10, 13, 0, 0, 0, time.UTC)

func decode(t *testing.T, body string) (*Result, *nws.TextProduct) {
	t.Helper()
	opts := nws.Options{Now: shefNow}
	prod, err := nws.ParseString("SRUS53 KDMX 101200\nRRSDMX\n\n"+body, opts)
	require.NoError(t, err)
	p := &Parser{}
	require.True(t, p.QuickCheck(prod))
	out, err := p.Parse(prod, opts)
	require.NoError(t, err)
	require.NotNil(t, out)
	return out.(*Result), prod
}

func TestDecodeESeries(t *testing.T) {
	res, _ := decode(t, ".E STATION 230610 Z DH00/DIH1/PPHZZZ 0 1 2 3\n")

	require.Len(t, res.Elements, 4)
	for i, el := range res.Elements {
		assert.Equal(t, "STATION", el.Station)
		assert.Equal(t, "PP", el.PhysicalElement)
		assert.Equal(t, "H", el.Duration)
		assert.Equal(t, "E", el.UnitConvention)
		assert.Equal(t, time.Date(2023, 6, 10, i, 0, 0, 0, time.UTC), el.Valid)
		require.NotNil(t, el.NumValue)
		assert.Equal(t, float64(i), *el.NumValue)
	}
	assert.Equal(t, "PPHZZZZ", res.Elements[0].Key())
}

func TestDecodeESlashSeriesWithGap(t *testing.T) {
	res, _ := decode(t, ".E DSMI4 0610 Z DH06/HGIRZ/DIH06/10.5/10.7\n.E1 //11.0\n")

	require.Len(t, res.Elements, 3)
	assert.Equal(t, 6, res.Elements[0].Valid.Hour())
	assert.Equal(t, 12, res.Elements[1].Valid.Hour())
	// the empty field skips 18Z
	assert.Equal(t, time.Date(2023, 6, 11, 0, 0, 0, 0, time.UTC), res.Elements[2].Valid)
	assert.Equal(t, 11.0, *res.Elements[2].NumValue)
}

func TestDecodeA(t *testing.T) {
	res, prod := decode(t, ".A DSMI4 0610 C DH07/HG 12.5/QR 1.23E/PPD 0.05/SD T/TX M\n")

	require.Len(t, res.Elements, 5)
	hg := res.Elements[0]
	assert.Equal(t, "HGIRZZZ", hg.Key())
	assert.Equal(t, time.Date(2023, 6, 10, 12, 0, 0, 0, time.UTC), hg.Valid)
	assert.Equal(t, 12.5, *hg.NumValue)

	qr := res.Elements[1]
	assert.Equal(t, "E", qr.Qualifier)
	assert.Equal(t, 1.23, *qr.NumValue)

	assert.Equal(t, "D", res.Elements[2].Duration)
	assert.Equal(t, patterns.TraceValue, *res.Elements[3].NumValue)
	assert.Nil(t, res.Elements[4].NumValue)
	assert.Equal(t, "M", res.Elements[4].StrValue)
	assert.Empty(t, prod.Warnings)
}

func TestDecodeAReservedElement(t *testing.T) {
	res, prod := decode(t, ".A KXYZ 0610 Z DH12/DXIRZZZ 5/HG 1.0\n")

	require.Len(t, res.Elements, 1)
	assert.Equal(t, "HG", res.Elements[0].PhysicalElement)
	assert.True(t, prod.Warnings.Has(nws.ErrUnknownCode))
}

func TestDecodeAModifiers(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, el Element)
	}{
		{
			name: "relative hours",
			body: ".A KXYZ 0610 Z DH12/DRH-6/HG 1.0\n",
			check: func(t *testing.T, el Element) {
				assert.Equal(t, time.Date(2023, 6, 10, 6, 0, 0, 0, time.UTC), el.Valid)
				assert.Equal(t, time.Date(2023, 6, 10, 12, 0, 0, 0, time.UTC), el.BaseValid)
			},
		},
		{
			name: "creation date",
			body: ".A KXYZ 0610 Z DH12/DC202306101230/HG 1.0\n",
			check: func(t *testing.T, el Element) {
				require.NotNil(t, el.DataCreated)
				assert.Equal(t, time.Date(2023, 6, 10, 12, 30, 0, 0, time.UTC), *el.DataCreated)
			},
		},
		{
			name: "default zulu hour",
			body: ".A KXYZ 0610 Z HG 1.0\n",
			check: func(t *testing.T, el Element) {
				assert.Equal(t, 12, el.Valid.Hour())
			},
		},
		{
			name: "hour 24",
			body: ".A KXYZ 0610 Z DH24/HG 1.0\n",
			check: func(t *testing.T, el Element) {
				assert.Equal(t, time.Date(2023, 6, 11, 0, 0, 0, 0, time.UTC), el.Valid)
			},
		},
		{
			name: "qualifier modifier",
			body: ".A KXYZ 0610 Z DH12/DQR/HG 1.0\n",
			check: func(t *testing.T, el Element) {
				assert.Equal(t, "R", el.Qualifier)
			},
		},
		{
			name: "revision flag",
			body: ".AR KXYZ 0610 Z DH12/HG 1.0\n",
			check: func(t *testing.T, el Element) {
				assert.True(t, el.Revised)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := decode(t, tt.body)
			require.Len(t, res.Elements, 1)
			tt.check(t, res.Elements[0])
		})
	}
}

func TestDecodeSIUnits(t *testing.T) {
	res, prod := decode(t, ".A KXYZ 0610 Z DH12/DUS/TA 20/SD 10/UR 18/YA 3\n")

	require.Len(t, res.Elements, 4)
	assert.InDelta(t, 68.0, *res.Elements[0].NumValue, 0.001)
	assert.InDelta(t, 3.937, *res.Elements[1].NumValue, 0.001)
	assert.InDelta(t, 180.0, *res.Elements[2].NumValue, 0.001)
	assert.Equal(t, "S", res.Elements[0].UnitConvention)
	// no conversion known, raw value passes through
	assert.Equal(t, 3.0, *res.Elements[3].NumValue)
	assert.True(t, prod.Warnings.Has(nws.ErrUnknownCode))
}

func TestDecodePaired(t *testing.T) {
	res, _ := decode(t, ".A KXYZ 0610 Z DH12/TBIRZZZ 4.072/TBIRZZZ -8.005\n")

	require.Len(t, res.Elements, 2)
	require.NotNil(t, res.Elements[0].Depth)
	assert.Equal(t, 4, *res.Elements[0].Depth)
	assert.Equal(t, 72.0, *res.Elements[0].NumValue)
	assert.Equal(t, 8, *res.Elements[1].Depth)
	assert.Equal(t, -5.0, *res.Elements[1].NumValue)
}

func TestDecodeContinuationAndComments(t *testing.T) {
	res, _ := decode(t, ".A KXYZ 0610 Z DH12/HG 1.0 :stage at bridge:\n.A1 PP 0.5\n")

	require.Len(t, res.Elements, 2)
	assert.Equal(t, "PP", res.Elements[1].PhysicalElement)
	assert.Equal(t, 0.5, *res.Elements[1].NumValue)
}

func TestDecodeB(t *testing.T) {
	body := `.B DMX 0610 Z DH12/HG/DH18/PP
AMEI4 3.5/0.25
BKEI4 DH13 4.0/M
CDAI4 /0.10, DSMI4 1.2/T
.END
`
	res, prod := decode(t, body)

	require.Len(t, res.Elements, 7)
	byKey := map[string]Element{}
	for _, el := range res.Elements {
		byKey[el.Station+el.PhysicalElement] = el
	}

	assert.Equal(t, 12, byKey["AMEI4HG"].Valid.Hour())
	assert.Equal(t, 18, byKey["AMEI4PP"].Valid.Hour())
	assert.Equal(t, 0.25, *byKey["AMEI4PP"].NumValue)

	assert.Equal(t, 13, byKey["BKEI4HG"].Valid.Hour())
	assert.Equal(t, 13, byKey["BKEI4PP"].Valid.Hour())
	assert.Nil(t, byKey["BKEI4PP"].NumValue)

	_, ok := byKey["CDAI4HG"]
	assert.False(t, ok)
	assert.Equal(t, 0.10, *byKey["CDAI4PP"].NumValue)
	assert.Equal(t, patterns.TraceValue, *byKey["DSMI4PP"].NumValue)
	assert.Equal(t, "B", byKey["DSMI4HG"].Format)
	assert.Empty(t, prod.Warnings)
}

func TestContentParserClaimsUnroutedProduct(t *testing.T) {
	opts := nws.Options{Now: shefNow}
	prod, err := nws.ParseString("SXUS50 KDMX 101200\nXXXDMX\n\n.A KXYZ 0610 Z DH12/HG 1.0\n", opts)
	require.NoError(t, err)
	p := &ContentParser{}
	assert.Empty(t, p.Prefixes())
	require.True(t, p.QuickCheck(prod))
	out, err := p.Parse(prod, opts)
	require.NoError(t, err)
	assert.Len(t, out.(*Result).Elements, 1)
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"HG", "HGIRZZZ", false},
		{"PP", "PPDRZZZ", false},
		{"TAIRZXZ", "TAIRZXZ", false},
		{"DH", "", true},
		{"HG1", "", true},
		{"hg", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseCode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Key())
		})
	}
}
