//go:build !(linux || darwin || freebsd || netbsd || openbsd || windows)

package crashlog

func osVersion() string {
	return ""
}
