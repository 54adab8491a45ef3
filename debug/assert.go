package debug

// Assert panics if condition is false. Calls are expected to be guarded by
// the Debug flag so release builds pay only for the branch.
func Assert(condition bool, message ...string) {
	if !condition {
		if len(message) > 0 {
			panic(message[0])
		}
		panic("assertion failed")
	}
}
