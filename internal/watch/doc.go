// Package watch provides the file-observation primitives for confgen's
// watch service: a single-file fsnotify watcher that survives atomic
// replaces of the target, and a debouncer that coalesces editor write
// bursts into a single regeneration trigger.
package watch
