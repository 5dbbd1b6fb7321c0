// Package realtime drives a procession at a fixed tick rate.
//
// Commands (start, pause toggle, cancel) sent from other goroutines are
// batched and applied at the next tick boundary, before the procession is
// advanced. Within a tick, commands apply in submission order unless a caller
// raised a command's Priority, so a given sequence of Send calls always produces the same
// run regardless of goroutine scheduling.
//
// # Example Usage
//
//	ctrl := core.NewController(w)
//	rt := realtime.NewRuntime(ctrl, realtime.Config{
//		TickRate: 100 * time.Millisecond,
//	})
//	rt.Start(ctx)
//	rt.Send(realtime.StartCommand(actor, route))
//
// A panic inside a tick is recovered and logged; the loop keeps running.
// Step runs one tick synchronously and is what headless runs and tests use.
package realtime
