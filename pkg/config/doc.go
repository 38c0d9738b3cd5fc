// Package config loads ewsoap client configuration and property map files.
//
// Configuration files may be JSON or YAML; the format is picked by file
// extension:
//
//	endpoint: https://mail.example.com/EWS/Exchange.asmx
//	username: svc-calendar
//	version: Exchange2010
//	retries: 4
//	timeoutSeconds: 30
//	log:
//	  level: debug
//	timezone:
//	  id: Pacific Standard Time
//	  name: (UTC-08:00) Pacific Time (US & Canada)
//	  periods: [...]
//
// Omitted fields fall back to the protocol defaults in package soap.
//
// Property map files describe the fields to pull from a response:
//
//	root: //t:CalendarEvent
//	fields:
//	  start: {query: t:StartTime, cast: datetime}
//	  busy:  t:BusyType
package config
