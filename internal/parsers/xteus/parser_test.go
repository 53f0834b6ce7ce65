package xteus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/nws"
)

const xteusText = `CXUS40 KWBC 101200
XTEUS

<?xml version="1.0"?>
<HighLow date="2023-06-09">
 <record type="max" id="TRM" name="Thermal" state="CA" value="112"/>
 <record type="max" id="NID" name="China Lake" state="CA" value="112"/>
 <record type="min" id="BYG" name="Buffalo" state="WY" value="28"/>
 <record type="avg" id="XXX" name="Nowhere" state="ZZ" value="50"/>
</HighLow>
`

func TestParse(t *testing.T) {
	opts := nws.Options{Now: time.Date(2023, 6, 10, 12, 30, 0, 0, time.UTC)}
	prod, err := nws.ParseString(xteusText, opts)
	require.NoError(t, err)
	p := &Parser{}
	require.True(t, p.QuickCheck(prod))
	out, err := p.Parse(prod, opts)
	require.NoError(t, err)
	res := out.(*Result)

	assert.Equal(t, time.Date(2023, 6, 9, 0, 0, 0, 0, time.UTC), res.Date)
	require.Len(t, res.Records, 3)
	assert.Equal(t, KindHigh, res.Records[0].Kind)
	assert.Equal(t, "TRM", res.Records[0].Station)
	assert.Equal(t, 112.0, res.Records[0].ValueF)
	assert.Equal(t, KindLow, res.Records[2].Kind)
	assert.True(t, prod.Warnings.Has(nws.ErrUnknownCode))

	notes := res.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, "National extremes for 9 Jun 2023: High 112F at Thermal, CA; Low 28F at Buffalo, WY", notes[0].Plain)
}
