package worker

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// sysSampler reports this process's CPU percent (relative to the whole
// machine, measured between consecutive samples) and system RAM percent by
// reading /proc; on other operating systems both are reported as 0. No
// cross-platform library in the ecosystem duplicates what the kernel
// already exposes for free; this is the one piece of the worker built on
// the standard library alone.
type sysSampler struct {
	mu            sync.Mutex
	clockTicks    float64
	lastProcTicks float64
	lastTotalJiff float64
	warmedUp      bool
}

func newSysSampler() *sysSampler {
	return &sysSampler{clockTicks: 100} // USER_HZ is 100 on every Linux target this runs on.
}

// Sample returns (cpuPercent, ramPercent). The first call always reports
// cpuPercent as 0, since a CPU percentage is a delta and there is no prior
// reading to delta against yet.
func (s *sysSampler) Sample() (cpuPercent, ramPercent float64, err error) {
	if runtime.GOOS != "linux" {
		return 0, 0, nil
	}
	cpuPercent, err = s.sampleCPU()
	if err != nil {
		return 0, 0, fmt.Errorf("sampling cpu: %w", err)
	}
	ramPercent, err = s.sampleRAM()
	if err != nil {
		return 0, 0, fmt.Errorf("sampling ram: %w", err)
	}
	return cpuPercent, ramPercent, nil
}

func (s *sysSampler) sampleCPU() (float64, error) {
	procTicks, err := readProcessTicks()
	if err != nil {
		return 0, err
	}
	totalJiffies, err := readTotalCPUJiffies()
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.warmedUp {
		s.lastProcTicks = procTicks
		s.lastTotalJiff = totalJiffies
		s.warmedUp = true
		return 0, nil
	}

	procDelta := procTicks - s.lastProcTicks
	totalDelta := totalJiffies - s.lastTotalJiff
	s.lastProcTicks = procTicks
	s.lastTotalJiff = totalJiffies
	if totalDelta <= 0 {
		return 0, nil
	}
	return (procDelta / totalDelta) * 100, nil
}

func (s *sysSampler) sampleRAM() (float64, error) {
	total, available, err := readMemInfo()
	if err != nil {
		return 0, err
	}
	if total <= 0 {
		return 0, nil
	}
	used := total - available
	return (used / total) * 100, nil
}

// readProcessTicks returns utime+stime from /proc/self/stat, in clock ticks.
func readProcessTicks() (float64, error) {
	data, err := os.ReadFile("/proc/self/stat")
	if err != nil {
		return 0, err
	}
	// Fields after the ")" that closes the process name are space-separated
	// and positionally fixed; utime is field 14, stime is field 15 (1-indexed).
	closeParen := strings.LastIndexByte(string(data), ')')
	if closeParen < 0 || closeParen+2 >= len(data) {
		return 0, fmt.Errorf("unexpected /proc/self/stat format")
	}
	fields := strings.Fields(string(data[closeParen+2:]))
	if len(fields) < 14 {
		return 0, fmt.Errorf("unexpected /proc/self/stat field count: %d", len(fields))
	}
	utime, err := strconv.ParseFloat(fields[11], 64)
	if err != nil {
		return 0, fmt.Errorf("parsing utime: %w", err)
	}
	stime, err := strconv.ParseFloat(fields[12], 64)
	if err != nil {
		return 0, fmt.Errorf("parsing stime: %w", err)
	}
	return utime + stime, nil
}

// readTotalCPUJiffies sums every field of the aggregate "cpu" line in
// /proc/stat, in the same clock-tick units as /proc/self/stat.
func readTotalCPUJiffies() (float64, error) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		fields := strings.Fields(line)[1:]
		var total float64
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				continue
			}
			total += v
		}
		return total, nil
	}
	return 0, fmt.Errorf("no aggregate cpu line found in /proc/stat")
}

// readMemInfo returns (MemTotal, MemAvailable) in kB from /proc/meminfo.
func readMemInfo() (total, available float64, err error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			total = parseMemInfoLine(line)
		case strings.HasPrefix(line, "MemAvailable:"):
			available = parseMemInfoLine(line)
		}
	}
	return total, available, nil
}

func parseMemInfoLine(line string) float64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	v, _ := strconv.ParseFloat(fields[1], 64)
	return v
}
