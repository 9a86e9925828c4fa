package concurrency

import (
	"log/slog"
	"runtime/debug"
)

// Go runs fn in a goroutine, recovering and logging any panic under
// the given name so one misbehaving background task cannot crash the
// server.
func Go(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Background task panicked",
					"task", name,
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}
