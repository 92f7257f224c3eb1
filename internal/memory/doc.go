// Package memory configures the Go soft memory limit for containers and
// holds new calls while heap usage is critical.
//
// GOMEMLIMIT is not derived from cgroup limits by the runtime, so Configure
// computes it from MEMORY_LIMIT (typically injected with the Kubernetes
// Downward API) and MEMORY_RATIO. An explicit GOMEMLIMIT always wins.
//
// The default ratio leaves a quarter of the container for ffmpeg and
// ffprobe, which run as child processes outside the Go heap:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.75"
//
// A [Monitor] samples heap usage. When it crosses the critical mark the
// pipeline's Wait blocks before starting engine work, until usage falls
// below the high mark again.
package memory
