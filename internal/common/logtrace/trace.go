package logtrace

// IsTraceEnabled reports whether route tracing diagnostics should run.
// TODO: wire this to a config flag once tracing lands.
func IsTraceEnabled() bool {
	return false
}
