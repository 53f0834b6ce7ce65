package gairmet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nws_parser/internal/nws"
)

const gairmetText = `LWUS20 KKCI 101445
GMTIFR

<?xml version="1.0" encoding="UTF-8"?>
<gml:FeatureCollection xmlns:gml="http://www.opengis.net/gml" xmlns:gairmet="http://www.aviationweather.gov/gairmet">
<gml:featureMember>
<gairmet:GAIRMET gml:id="IFR-1-0">
<gairmet:issueTime><gml:TimeInstant><gml:timePosition>2023-06-10T14:45:00Z</gml:timePosition></gml:TimeInstant></gairmet:issueTime>
<gairmet:validTime><gml:TimeInstant><gml:timePosition>2023-06-10T15:00:00Z</gml:timePosition></gml:TimeInstant></gairmet:validTime>
<gairmet:hazard type="IFR"/>
<gairmet:dueTo>CIG BLW 010/VIS BLW 3SM BR</gairmet:dueTo>
<gairmet:geometry><gml:Polygon><gml:exterior><gml:LinearRing>
<gml:posList>41.5 -94.0 43.0 -94.0 43.0 -92.0 41.5 -92.0</gml:posList>
</gml:LinearRing></gml:exterior></gml:Polygon></gairmet:geometry>
</gairmet:GAIRMET>
</gml:featureMember>
<gml:featureMember>
<gairmet:GAIRMET gml:id="TURB-HI-2-3">
<gairmet:issueTime><gml:TimeInstant><gml:timePosition>2023-06-10T14:45:00Z</gml:timePosition></gml:TimeInstant></gairmet:issueTime>
<gairmet:validTime><gml:TimeInstant><gml:timePosition>2023-06-10T18:00:00Z</gml:timePosition></gml:TimeInstant></gairmet:validTime>
<gairmet:hazard type="TURB-HI" severity="MOD"/>
<gairmet:altitude bottom="FL180" top="FL390"/>
<gairmet:geometry><gml:Polygon><gml:exterior><gml:LinearRing>
<gml:posList>45.0 -100.0 47.0 -100.0 47.0 -96.0 45.0 -100.0</gml:posList>
</gml:LinearRing></gml:exterior></gml:Polygon></gairmet:geometry>
</gairmet:GAIRMET>
</gml:featureMember>
<gml:featureMember>
<gairmet:GAIRMET gml:id="ICE-3-0">
<gairmet:issueTime><gml:TimeInstant><gml:timePosition>2023-06-10T14:45:00Z</gml:timePosition></gml:TimeInstant></gairmet:issueTime>
<gairmet:validTime><gml:TimeInstant><gml:timePosition>2023-06-10T15:00:00Z</gml:timePosition></gml:TimeInstant></gairmet:validTime>
<gairmet:hazard type="ICE" severity="MOD"/>
<gairmet:altitude bottom="SFC" top="FL200"/>
</gairmet:GAIRMET>
</gml:featureMember>
</gml:FeatureCollection>
`

func TestParse(t *testing.T) {
	opts := nws.Options{Now: time.Date(2023, 6, 10, 15, 0, 0, 0, time.UTC)}
	prod, err := nws.ParseString(gairmetText, opts)
	require.NoError(t, err)
	p := &Parser{}
	require.True(t, p.QuickCheck(prod))
	out, err := p.Parse(prod, opts)
	require.NoError(t, err)
	res := out.(*Result)

	require.Len(t, res.Airmets, 2)
	ifr := res.Airmets[0]
	assert.Equal(t, "IFR-1-0", ifr.Label)
	assert.Equal(t, "IFR", ifr.Hazard)
	assert.Equal(t, "CIG BLW 010/VIS BLW 3SM BR", ifr.DueTo)
	assert.Equal(t, time.Date(2023, 6, 10, 15, 0, 0, 0, time.UTC), ifr.Valid)
	require.Len(t, ifr.Polygon, 1)
	assert.Len(t, ifr.Polygon[0], 5)
	assert.Equal(t, -94.0, ifr.Polygon[0][0][0])
	assert.Equal(t, 41.5, ifr.Polygon[0][0][1])
	assert.Nil(t, ifr.BaseFt)

	turb := res.Airmets[1]
	assert.Equal(t, "MOD", turb.Severity)
	assert.Equal(t, 18000, *turb.BaseFt)
	assert.Equal(t, 39000, *turb.TopFt)
	assert.Len(t, turb.Polygon[0], 4)

	assert.True(t, prod.Warnings.Has(nws.ErrInvalidGeometry))
}

func TestParseBadXML(t *testing.T) {
	opts := nws.Options{Now: time.Date(2023, 6, 10, 15, 0, 0, 0, time.UTC)}
	prod, err := nws.ParseString("LWUS20 KKCI 101445\nGMTIFR\n\n<gml:FeatureCollection><GAIRMET>\n", opts)
	require.NoError(t, err)
	_, err = (&Parser{}).Parse(prod, opts)
	assert.ErrorIs(t, err, nws.ErrInvalidEnvelope)
}

func TestAltitude(t *testing.T) {
	assert.Equal(t, 0, *altitude("SFC"))
	assert.Equal(t, 12000, *altitude("FL120"))
	assert.Equal(t, 3000, *altitude("3000"))
	assert.Nil(t, altitude(""))
	assert.Nil(t, altitude("FRZLVL"))
}
