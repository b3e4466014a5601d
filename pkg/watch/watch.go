package watch

// Watch is the library's public factory (§6): given a root path and
// configuration, it returns the Node watching that path, consulting the
// process-wide Registry to deduplicate concurrent calls for the same path
// (P1). Activation happens asynchronously, on its own goroutine, so Watch
// itself returns promptly; subscribe to OnWatching (or OnceWatching)
// immediately on the returned Node if you need to know when the initial
// bind (and, for directories, child enumeration) completes.
func Watch(root string, cfg Configuration) (*Node, error) {
	return defaultRegistry().getOrCreate(root, cfg, nil, nil)
}
