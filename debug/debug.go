//go:build !debug

package debug

// Debug reports whether the binary was built with the debug tag. It gates
// extra runtime assertions in hot paths.
const Debug = false
