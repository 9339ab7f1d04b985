// Package logtail reads the tail of reportwatch's structured log file.
//
// Read extracts the last N lines with a ring buffer, so memory use is
// O(N) regardless of file size. Parse turns a zap JSON line into an Entry,
// and Format renders it as a compact line for the terminal:
//
//	14:02:11 INFO  watch finished job_id=7f3c outcome=completed polls=4
//
// Lines that are not JSON are passed through untouched.
package logtail
