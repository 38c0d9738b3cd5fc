// Package logging provides structured logging configuration for ewsoap.
//
// This package wraps log/slog the same way across the SOAP client, the HTTP
// transport and the CLI. Components accept a *slog.Logger in their
// constructor or via an option; when none is given they use Nop().
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatText,
//	})
//
//	logger.Debug("SOAP request", "xml", logging.XML(envelope))
//
// XML values are rendered lazily, so request and response dumps are only
// serialized when debug logging is enabled.
package logging
