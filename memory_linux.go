//go:build linux

package sandbridge

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// processMemoryInfo reports the current and peak resident set in kilobytes.
// The current value comes from /proc/self/statm, the peak from getrusage.
func processMemoryInfo() (ProcessMemoryInfo, error) {
	data, err := os.ReadFile("/proc/self/statm")
	if err != nil {
		return ProcessMemoryInfo{}, fmt.Errorf("reading statm: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return ProcessMemoryInfo{}, fmt.Errorf("unexpected statm contents %q", data)
	}
	residentPages, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return ProcessMemoryInfo{}, fmt.Errorf("parsing statm resident field: %w", err)
	}

	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return ProcessMemoryInfo{}, fmt.Errorf("getrusage: %w", err)
	}

	return ProcessMemoryInfo{
		WorkingSetSize:     residentPages * int64(os.Getpagesize()) / 1024,
		PeakWorkingSetSize: ru.Maxrss, // already in kilobytes on Linux
	}, nil
}

// systemMemoryInfo reports system-wide memory in kilobytes via sysinfo(2).
func systemMemoryInfo() (SystemMemoryInfo, error) {
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return SystemMemoryInfo{}, fmt.Errorf("sysinfo: %w", err)
	}
	unit := int64(si.Unit)
	if unit == 0 {
		unit = 1
	}
	return SystemMemoryInfo{
		Total:     int64(si.Totalram) * unit / 1024,
		Free:      int64(si.Freeram) * unit / 1024,
		SwapTotal: int64(si.Totalswap) * unit / 1024,
		SwapFree:  int64(si.Freeswap) * unit / 1024,
	}, nil
}
