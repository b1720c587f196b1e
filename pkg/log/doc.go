/*
Package log provides structured logging for the scheduler using zerolog.

It wraps zerolog to give every component JSON-structured logging with a
configurable level and output, plus helpers for attaching node, application,
and estimator context to a child logger.

# Usage

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	log.Info("scheduler starting")

	schedLog := log.WithComponent("scheduler")
	schedLog.Info().Str("application_id", id).Msg("application scheduled")

	nodeLog := log.WithNode("10.0.0.4:7777")
	nodeLog.Warn().Msg("node reported zero available containers")
*/
package log
