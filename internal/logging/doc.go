// Package logging provides file-based structured JSON logging with
// rotation for ragcore. The CLI sets it up before every command: logs go
// to a rotating file (by default ~/.ragcore/logs/ragcore.log) and to
// stderr, at level "info" unless the config's logging level or
// RAGCORE_LOG_LEVEL says otherwise.
package logging
