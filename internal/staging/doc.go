// Package staging writes an inbound request stream to a per-call temporary
// file.
//
// An [Assembler] is created for each call. The first frame must carry the
// source file extension, which names the staging file so the media engine
// can detect the container format. Every chunk is appended in arrival order.
// [Assembler.Complete] closes the file and hands ownership to the caller;
// [Assembler.Abort] removes it.
//
// Staging files are named "ffservice-<uuid>.<ext>" so concurrent
// calls never share a path. Stat, open and remove retry on ESTALE for
// staging directories on NFS.
package staging
