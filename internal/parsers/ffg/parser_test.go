package ffg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/nws"
)

const ffgText = `FOUS63 KMSR 101200
FFGMPX

.B MSR 0610 Z DH12/DUE/PPHCF/PPTCF/PPQCF/PPKCF/PPDCF
:
: Iowa
IAC001 : Adair :    2.10/   2.60/   2.95/   3.40/   3.80
IAC003 : Adams :    1.90/   2.45/      M/   3.10/   3.55
IAZ017 : Story :    2.20/   2.70/   3.05
.END
`

func TestParse(t *testing.T) {
	opts := nws.Options{Now: time.Date(2023, 6, 10, 12, 30, 0, 0, time.UTC)}
	prod, err := nws.ParseString(ffgText, opts)
	require.NoError(t, err)
	p := &Parser{}
	require.True(t, p.QuickCheck(prod))
	out, err := p.Parse(prod, opts)
	require.NoError(t, err)
	res := out.(*Result)

	require.Len(t, res.Guidance, 3)
	adair := res.Guidance[0]
	assert.Equal(t, "IAC001", adair.UGC)
	assert.Equal(t, time.Date(2023, 6, 10, 12, 0, 0, 0, time.UTC), adair.Valid)
	assert.InDelta(t, 2.10, *adair.Hour1, 1e-9)
	assert.InDelta(t, 2.95, *adair.Hour6, 1e-9)
	assert.InDelta(t, 3.80, *adair.Hour24, 1e-9)

	assert.Nil(t, res.Guidance[1].Hour6)
	assert.InDelta(t, 3.10, *res.Guidance[1].Hour12, 1e-9)

	story := res.Guidance[2]
	assert.Equal(t, "IAZ017", story.UGC)
	assert.Nil(t, story.Hour12)
	assert.Nil(t, story.Hour24)
}
