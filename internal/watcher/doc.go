// Package watcher reports changes to the content directory.
//
// The package implements a hybrid watching strategy:
//   - Primary: fsnotify for efficient event-based watching
//   - Fallback: polling for environments where fsnotify fails (network mounts, Docker volumes)
//
// Only files directly inside the content directory whose name ends with the
// content extension produce events. Bursts of events (editors writing a file
// in several steps, bulk copies) are debounced into batches.
//
// A Notifier consumes the batches and calls its subscribers in order:
//
//	w, _ := watcher.NewHybridWatcher(watcher.DefaultOptions())
//	n := watcher.NewNotifier(logger)
//	n.Subscribe("index", store.Invalidate)
//	n.Subscribe("cache", results.FlushAll)
//
//	go func() { _ = w.Start(ctx, "public/articles") }()
//	n.Run(ctx, w.Events())
package watcher
