//go:build !corort_debug

package corort

// Guard checks are compiled out entirely outside corort_debug builds, the
// same way the original reserves its stack-overflow sentinel for DEBUG
// builds only.
func initGuard(*Coroutine)  {}
func checkGuard(*Coroutine) {}
