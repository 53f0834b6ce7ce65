// Package reference holds the closed catalogs used to validate and label
// decoded codes.
package reference

// Phenomena maps VTEC phenomena codes to names.
var Phenomena = map[string]string{
	"AF": "Ashfall",
	"AS": "Air Stagnation",
	"BH": "Beach Hazard",
	"BS": "Blowing Snow",
	"BW": "Brisk Wind",
	"BZ": "Blizzard",
	"CF": "Coastal Flood",
	"CW": "Cold Weather",
	"DF": "Debris Flow",
	"DS": "Dust Storm",
	"DU": "Blowing Dust",
	"EC": "Extreme Cold",
	"EH": "Excessive Heat",
	"EW": "Extreme Wind",
	"FA": "Flood",
	"FF": "Flash Flood",
	"FG": "Dense Fog",
	"FL": "Flood",
	"FR": "Frost",
	"FW": "Fire Weather",
	"FZ": "Freeze",
	"GL": "Gale",
	"HF": "Hurricane Force Wind",
	"HI": "Inland Hurricane",
	"HS": "Heavy Snow",
	"HT": "Heat",
	"HU": "Hurricane",
	"HW": "High Wind",
	"HY": "Hydrologic",
	"HZ": "Hard Freeze",
	"IP": "Sleet",
	"IS": "Ice Storm",
	"LB": "Lake Effect Snow and Blowing Snow",
	"LE": "Lake Effect Snow",
	"LO": "Low Water",
	"LS": "Lakeshore Flood",
	"LW": "Lake Wind",
	"MA": "Marine",
	"MF": "Marine Dense Fog",
	"MH": "Marine Ashfall",
	"MS": "Marine Dense Smoke",
	"RB": "Small Craft for Rough Bar",
	"RP": "Rip Currents",
	"SB": "Snow and Blowing Snow",
	"SC": "Small Craft",
	"SE": "Hazardous Seas",
	"SI": "Small Craft for Winds",
	"SM": "Dense Smoke",
	"SN": "Snow",
	"SQ": "Snow Squall",
	"SR": "Storm",
	"SS": "Storm Surge",
	"SU": "High Surf",
	"SV": "Severe Thunderstorm",
	"SW": "Small Craft for Hazardous Seas",
	"TI": "Inland Tropical Storm",
	"TO": "Tornado",
	"TR": "Tropical Storm",
	"TS": "Tsunami",
	"TY": "Typhoon",
	"UP": "Heavy Freezing Spray",
	"WC": "Wind Chill",
	"WI": "Wind",
	"WS": "Winter Storm",
	"WW": "Winter Weather",
	"XH": "Extreme Heat",
	"ZF": "Freezing Fog",
	"ZR": "Freezing Rain",
	"ZY": "Freezing Spray",
}

// Significance maps VTEC significance letters to names.
var Significance = map[string]string{
	"W": "Warning",
	"Y": "Advisory",
	"A": "Watch",
	"S": "Statement",
	"O": "Outlook",
	"N": "Synopsis",
	"F": "Forecast",
}

// ActionVerbs maps VTEC actions to the verb used in notifications.
var ActionVerbs = map[string]string{
	"NEW": "issues",
	"CON": "continues",
	"EXA": "expands area to include",
	"EXT": "extends time of",
	"EXB": "extends time and expands area of",
	"UPG": "upgrades",
	"CAN": "cancels",
	"EXP": "expires",
	"ROU": "issues routine",
	"COR": "corrects",
}

// PhenomenaName returns the name for a phenomena code or the code itself.
func PhenomenaName(code string) string {
	if n, ok := Phenomena[code]; ok {
		return n
	}
	return code
}

// EventName renders "Tornado Warning" style labels.
func EventName(phenomena, significance string) string {
	sig, ok := Significance[significance]
	if !ok {
		sig = significance
	}
	return PhenomenaName(phenomena) + " " + sig
}

// HVTECSeverity maps H-VTEC flood severity codes.
var HVTECSeverity = map[string]string{
	"N": "None",
	"0": "Areal Flood or Flash Flood",
	"1": "Minor",
	"2": "Moderate",
	"3": "Major",
	"U": "Unknown",
}

// HVTECCause maps H-VTEC immediate cause codes.
var HVTECCause = map[string]string{
	"ER": "Excessive Rainfall",
	"SM": "Snowmelt",
	"RS": "Rain and Snowmelt",
	"DM": "Dam or Levee Failure",
	"IJ": "Ice Jam",
	"GO": "Glacier-Dammed Lake Outburst",
	"IC": "Rain and/or Snowmelt and/or Ice Jam",
	"FS": "Upstream Flooding plus Storm Surge",
	"FT": "Upstream Flooding plus Tidal Effects",
	"ET": "Elevated Upstream Flow plus Tidal Effects",
	"WT": "Wind and/or Tidal Effects",
	"DR": "Upstream Dam or Reservoir Release",
	"MC": "Other Multiple Causes",
	"OT": "Other Effects",
	"UU": "Unknown",
}

// HVTECRecord maps flood record status codes.
var HVTECRecord = map[string]string{
	"NO": "Record Flood Not Expected",
	"NR": "Near Record or Record Flood Expected",
	"UU": "Flood Without a Period of Record to Compare",
	"OO": "Not Applicable",
}
