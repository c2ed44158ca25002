package config

import "time"

// DaemonConfig holds the single-process controller's runtime configuration:
// where to find the autorun script, where to write the PID file, and the
// worker loop's poll/pacing timing (spec defaults: 0.6s empty-queue poll,
// 0.55s post-success pacing).
type DaemonConfig struct {
	// AutorunPath is the file of newline-delimited default-event lines
	// loaded before the REPL prompt starts. Missing file is OK.
	AutorunPath string `mapstructure:"autorun_path"`

	// PIDFile location, used to prevent two controller instances running
	// against the same agent token at once.
	PIDFile string `mapstructure:"pid_file"`

	// EmptyQueuePoll is how long the worker blocks waiting for a ready
	// event before re-checking the deferred queue (T_empty).
	EmptyQueuePoll time.Duration `mapstructure:"empty_queue_poll" validate:"required"`

	// PostSuccessPace is the sleep after a SUCCESS dispatch (not after SKIP,
	// INSTANT or FAIL) to stay under the API's rate limit (T_pace).
	PostSuccessPace time.Duration `mapstructure:"post_success_pace" validate:"required"`

	// ShutdownTimeout bounds how long `default exit` waits for the worker
	// goroutine to drain before the process exits anyway.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}
