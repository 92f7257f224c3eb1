/*
Package workers sizes and bounds the media engine work of concurrent calls.

# Sizing

In a container the CPU limit is reflected in GOMAXPROCS, while
runtime.NumCPU() still reports the host's cores. [Count] and [ForCPU] derive
worker counts from GOMAXPROCS:

	// Pod limited to 2 CPUs on a 64-core node
	workers.ForCPU(0) // 2

Set ENGINE_WORKERS to pin the count regardless of CPU limits.

# Limiting

Each call runs one ffprobe and one or two ffmpeg processes while it holds a
[Limiter] slot. Calls still ingesting or emitting do not hold a slot:

	l := workers.NewLimiter(workers.ForCPU(0))

	release, err := l.Acquire(ctx)
	if err != nil {
		return err // ctx ended while queued
	}
	defer release()
*/
package workers
