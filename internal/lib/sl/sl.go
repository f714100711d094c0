// Package sl holds small helpers for structured logging with slog.
package sl

import "log/slog"

// Err returns an slog.Attr with key "error" holding the error text.
//
//	log.Error("building chain", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
