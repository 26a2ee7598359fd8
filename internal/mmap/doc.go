// Package mmap maps files read-only into memory.
//
// Mapping and Reader are safe for concurrent reads. Close is idempotent;
// callers must not touch Bytes() after Close returns.
package mmap
