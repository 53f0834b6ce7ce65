package hml

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/nws"
)

const hmlText = `SRUS73 KDMX 101200
HMLDMX

<?xml version="1.0" standalone="yes"?>
<site xmlns="http://www.nws.noaa.gov/hml" id="AMEI4" name="Squaw Creek at Ames" originator="NWS: DMX" generationtime="2023-06-10T11:55:00-00:00">
  <observed>
    <datum><valid timezone="UTC">2023-06-10T11:00:00-00:00</valid><primary name="Stage" units="ft">3.45</primary><secondary name="Flow" units="kcfs">1.20</secondary></datum>
    <datum><valid timezone="UTC">2023-06-10T11:45:00-00:00</valid><primary name="Stage" units="ft">3.50</primary><secondary name="Flow" units="kcfs">-999</secondary></datum>
  </observed>
  <forecast timezone="UTC" issued="2023-06-10T11:52:00-00:00">
    <datum><valid timezone="UTC">2023-06-10T18:00:00-00:00</valid><primary name="Stage" units="ft">4.10</primary></datum>
  </forecast>
</site>
<?xml version="1.0" standalone="yes"?>
<site xmlns="http://www.nws.noaa.gov/hml" id="DESI4" name="Des Moines River at Des Moines" originator="NWS: DMX" generationtime="2023-06-10T11:55:00-00:00">
  <observed>
    <datum><valid timezone="UTC">2023-06-10T11:00:00-00:00</valid><primary name="Stage" units="ft">12.0</primary></datum>
  </observed>
</site>
`

func TestParse(t *testing.T) {
	opts := nws.Options{Now: time.Date(2023, 6, 10, 12, 30, 0, 0, time.UTC)}
	prod, err := nws.ParseString(hmlText, opts)
	require.NoError(t, err)
	p := &Parser{}
	require.True(t, p.QuickCheck(prod))
	out, err := p.Parse(prod, opts)
	require.NoError(t, err)
	res := out.(*Result)

	require.Len(t, res.Sites, 2)
	ames := res.Sites[0]
	assert.Equal(t, "AMEI4", ames.ID)
	assert.Equal(t, "NWS: DMX", ames.Originator)
	assert.Equal(t, time.Date(2023, 6, 10, 11, 55, 0, 0, time.UTC), ames.Generated)

	require.NotNil(t, ames.Observed)
	require.Len(t, ames.Observed.Data, 2)
	first := ames.Observed.Data[0]
	assert.Equal(t, "Stage", first.Primary.Name)
	assert.Equal(t, 3.45, *first.Primary.Value)
	assert.Equal(t, "kcfs", first.Secondary.Units)
	assert.Nil(t, ames.Observed.Data[1].Secondary.Value)

	require.NotNil(t, ames.Forecast)
	require.NotNil(t, ames.Forecast.Issued)
	assert.Equal(t, 11, ames.Forecast.Issued.Hour())
	assert.Equal(t, 4.10, *ames.Forecast.Data[0].Primary.Value)
	assert.Nil(t, ames.Forecast.Data[0].Secondary)

	assert.Nil(t, res.Sites[1].Forecast)
}
