// Package shutdown coordinates cooperative process shutdown.
//
// A Flag is set exactly once; workers poll IsSet or select on Done. The
// Coordinator sets the flag from SIGINT/SIGTERM and runs the stop sequence
// on the main goroutine:
//
//	flag := shutdown.NewFlag()
//	coord := shutdown.NewCoordinator(flag, shutdown.Options{GracePeriod: 10 * time.Second})
//	coord.Notify()
//	defer coord.Stop()
//
//	err := coord.Run(ctx, pool.Wait)
package shutdown
