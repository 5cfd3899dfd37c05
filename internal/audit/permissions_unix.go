//go:build !windows && !plan9 && !js && !wasip1

package audit

// PermissionsSupported reports whether the host has POSIX permission bits.
func PermissionsSupported() bool { return true }
