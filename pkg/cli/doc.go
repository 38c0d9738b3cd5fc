// Package cli provides the command-line interface for ewsoap.
//
// The cli package implements the ewsoap commands:
//   - send: Wrap a request body in an envelope, send it and print the reply
//   - extract: Parse a saved response and run a field map against it
//   - envelope: Print the envelope a body would be sent in
//   - version: Show ewsoap version
//
// Global flags:
//   - --config, -c: Client config file (YAML or JSON)
//   - --json: Machine-readable output
//   - --log-level: Override the configured log level
//   - --trace: Write a debug-level JSON trace to a file
//
// Field maps are YAML or JSON files with an optional root query and the
// fields to extract:
//
//	root: //t:Attendee
//	fields:
//	  name: t:Mailbox/t:Name
//	  responded: {query: t:LastResponseTime, cast: datetime}
//
// Each element matched by root yields one result. Without root the map is
// run against the document element.
package cli
