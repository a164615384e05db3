//go:build !linux

package sandbridge

import "errors"

var errMemoryInfoUnsupported = errors.New("memory info is not supported on this platform")

func processMemoryInfo() (ProcessMemoryInfo, error) {
	return ProcessMemoryInfo{}, errMemoryInfoUnsupported
}

func systemMemoryInfo() (SystemMemoryInfo, error) {
	return SystemMemoryInfo{}, errMemoryInfoUnsupported
}
