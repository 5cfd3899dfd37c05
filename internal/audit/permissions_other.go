//go:build windows || plan9 || js || wasip1

package audit

// PermissionsSupported reports whether the host has POSIX permission bits.
// Mode bits on this platform are synthesized, so the check is not applicable.
func PermissionsSupported() bool { return false }
