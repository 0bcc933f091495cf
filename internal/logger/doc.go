// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a sane console encoder,
//   - context helpers (ToContext/FromContext),
//   - level configuration and parsing utilities,
//   - convenience functions (Debugf, DebugKV).
//
// Resolution strategies accept a context and extract the logger from it,
// enabling scoped, structured logging throughout the codebase.
package logger
