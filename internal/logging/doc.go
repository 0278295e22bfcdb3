// Package logging builds the slog loggers used across deckrip.
//
// It supports a human console format and a json format, parses level names
// leniently, and can tee output into a log file under the configured log
// directory. Components attach themselves with WithComponent so console
// lines read "time LEVEL component: message k=v".
package logging
