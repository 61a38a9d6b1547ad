// Package progress provides throughput accounting and reporting.
//
// Workers add received bytes to a shared Counter. A Reporter samples the
// counter once per interval and prints the instantaneous bit rate, the
// cumulative total and the elapsed time on a single line.
//
// # Usage
//
//	stats := &progress.Stats{}
//	reporter := progress.NewReporter(progress.Options{
//	    Stats:  stats,
//	    Output: progress.NewSyncWriter(os.Stdout),
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	// From any goroutine
//	stats.Bytes.Add(int64(n))
//
// # Output Format
//
//	[saturator] Speed:    843.21 Mbit/s | Downloaded:    3.14 GB | Time:   32s | Requests: 52 (1 failed)
//	[saturator] Total: 3.14 GB in 32s | Average speed: 842.10 Mbit/s
package progress
