package sel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/nws"
)

const selText = `WWUS20 KWNS 100335
SEL3
SPC WW 100335
IAZ000-MOZ000-100900-

URGENT - IMMEDIATE BROADCAST REQUESTED
TORNADO WATCH NUMBER 503
NWS STORM PREDICTION CENTER NORMAN OK
1035 PM CDT SUN MAR 9 2014

THE NWS STORM PREDICTION CENTER HAS ISSUED A

* TORNADO WATCH FOR PORTIONS OF
  CENTRAL IOWA
  NORTHERN MISSOURI

* EFFECTIVE THIS SUNDAY NIGHT FROM 1035 PM UNTIL 400 AM CDT.

...THIS IS A PARTICULARLY DANGEROUS SITUATION...

$$
`

func TestParseSEL(t *testing.T) {
	opts := nws.Options{Now: time.Date(2014, 3, 10, 4, 0, 0, 0, time.UTC)}
	prod, err := nws.ParseString(selText, opts)
	require.NoError(t, err)
	out, err := (&Parser{}).Parse(prod, opts)
	require.NoError(t, err)
	res := out.(*Result)

	assert.Equal(t, 503, res.Num)
	assert.Equal(t, "TORNADO", res.WWType)
	assert.True(t, res.IsPDS)
	assert.False(t, res.IsTest)
	assert.False(t, res.Cancelled)
	assert.Equal(t, []string{"CENTRAL IOWA", "NORTHERN MISSOURI"}, res.Areas)
	assert.Equal(t,
		"SPC issues Tornado Watch 503 (Particularly Dangerous Situation) for CENTRAL IOWA, NORTHERN MISSOURI",
		res.Notifications()[0].Plain)
}
