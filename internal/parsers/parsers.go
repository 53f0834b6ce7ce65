// Package parsers imports all family decoders to trigger their init() registration.
// Import this package for side effects only.
package parsers

import (
	// Import all family packages to register them with the registry.
	_ "nws_parser/internal/parsers/cf6"
	_ "nws_parser/internal/parsers/cli"
	_ "nws_parser/internal/parsers/cwa"
	_ "nws_parser/internal/parsers/dsm"
	_ "nws_parser/internal/parsers/ero"
	_ "nws_parser/internal/parsers/fd"
	_ "nws_parser/internal/parsers/ffg"
	_ "nws_parser/internal/parsers/gairmet"
	_ "nws_parser/internal/parsers/hml"
	_ "nws_parser/internal/parsers/hwo"
	_ "nws_parser/internal/parsers/lsr"
	_ "nws_parser/internal/parsers/mcd"
	_ "nws_parser/internal/parsers/metarcollect"
	_ "nws_parser/internal/parsers/mos"
	_ "nws_parser/internal/parsers/nhc"
	_ "nws_parser/internal/parsers/pirep"
	_ "nws_parser/internal/parsers/saw"
	_ "nws_parser/internal/parsers/scp"
	_ "nws_parser/internal/parsers/sel"
	_ "nws_parser/internal/parsers/shef"
	_ "nws_parser/internal/parsers/sigmet"
	_ "nws_parser/internal/parsers/spacewx"
	_ "nws_parser/internal/parsers/spcpts"
	_ "nws_parser/internal/parsers/sps"
	_ "nws_parser/internal/parsers/taf"
	_ "nws_parser/internal/parsers/vtecproduct"
	_ "nws_parser/internal/parsers/wwp"
	_ "nws_parser/internal/parsers/xteus"
)
