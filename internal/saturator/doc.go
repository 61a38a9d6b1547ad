// Package saturator generates sustained download load against HTTP sources.
//
// A Pool runs WorkersPerSource workers for every Source. Each worker loops
// forever: GET the source, read the body in ChunkSize pieces, add every
// piece to the shared byte counter and throw it away. Failed attempts are
// counted and retried after a short fixed pause. The loop only ends when the
// shutdown flag is set, or when the grace period has run out and the pool
// cancels what is left.
//
// # Usage
//
//	flag := shutdown.NewFlag()
//	coord := shutdown.NewCoordinator(flag, shutdown.Options{GracePeriod: 10 * time.Second})
//	coord.Notify()
//	defer coord.Stop()
//
//	sources, err := saturator.ParseSources(urls, 2*1024*1024)
//	err = saturator.Run(ctx, saturator.Options{
//	    Sources:          sources,
//	    WorkersPerSource: 50,
//	    Coordinator:      coord,
//	})
package saturator
