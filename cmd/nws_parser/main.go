// Command nws_parser decodes NWS text and binary products.
//
// Input formats
// -------------
// Text products arrive either bare (WMO heading, AFOS line, body) or wrapped
// in the LDM envelope (SOH, sequence number, body, ETX). A file may hold many
// framed products back to back; unframed input is decoded as one product.
//
// Binary feeds (GINI imagery, NLDN lightning) and the NCEI archive formats
// are handled by the "binary" subcommands.
package main

func main() {
	Execute()
}
