package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// levelOverrideCore wraps a zapcore.Core and filters entries by its own level
// instead of the wrapped core's one, so a derived logger can be more verbose
// than the global logger.
type levelOverrideCore struct {
	zapcore.Core

	// level is the minimum log level for this core to process messages.
	level zapcore.Level
}

// Enabled reports whether the override level allows l.
func (c *levelOverrideCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l)
}

// Check adds the core to a checked entry if the override level allows the entry.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *levelOverrideCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

// With returns a core with added fields that keeps the override level.
//
//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func (c *levelOverrideCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelOverrideCore{
		c.Core.With(fields),
		c.level,
	}
}

// WithLevel returns an option that makes a derived logger use lvl regardless
// of the global level, e.g. for a --debug flag.
//
//nolint:ireturn,nolintlint // Returning zap.Option is intended for zap integration.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(
		func(core zapcore.Core) zapcore.Core {
			return &levelOverrideCore{core, lvl}
		})
}
