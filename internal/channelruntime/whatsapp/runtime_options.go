package whatsapp

import "strings"

const (
	defaultMaxConcurrency = 4
	defaultQueueSize      = 16
)

type RunOptions struct {
	MaxConcurrency int
	QueueSize      int
	HealthListen   string
}

type runtimeLoopOptions struct {
	MaxConcurrency int
	QueueSize      int
	HealthListen   string
}

func resolveRuntimeLoopOptionsFromRunOptions(opts RunOptions) runtimeLoopOptions {
	return normalizeRuntimeLoopOptions(runtimeLoopOptions{
		MaxConcurrency: opts.MaxConcurrency,
		QueueSize:      opts.QueueSize,
		HealthListen:   opts.HealthListen,
	})
}

func normalizeRuntimeLoopOptions(opts runtimeLoopOptions) runtimeLoopOptions {
	opts.HealthListen = strings.TrimSpace(opts.HealthListen)
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = defaultMaxConcurrency
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	return opts
}
