// Package system wraps host concerns: file limits, input discovery, pooled
// frame buffers and process resource samples for the run report.
package system

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// InitResourceLimits raises the open-file limit so many snapshot writers
// can run at once.
func InitResourceLimits(logger *slog.Logger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("read open-file limit", "error", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("raise open-file limit", "error", err)
		return
	}
	logger.Debug("open-file limit raised", "limit", rLimit.Cur)
}

// FindLatest returns the most recently modified file in dir whose name
// ends with one of exts (case-insensitive).
func FindLatest(dir string, exts ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files in %s", strings.Join(exts, "/"), dir)
	}
	return latestFile, nil
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Sample is a point-in-time view of this process.
type Sample struct {
	Goroutines  int     `yaml:"goroutines"`
	CPUPercent  float64 `yaml:"cpu_percent"`
	RSSBytes    uint64  `yaml:"rss_bytes"`
	HeapBytes   uint64  `yaml:"heap_bytes"`
	HostUsedPct float64 `yaml:"host_mem_used_percent"`
}

// TakeSample reads process and host figures. Fields gopsutil cannot read
// on this platform stay zero.
func TakeSample() Sample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s := Sample{Goroutines: runtime.NumGoroutine(), HeapBytes: ms.HeapAlloc}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if pct, err := p.CPUPercent(); err == nil {
			s.CPUPercent = pct
		}
		if info, err := p.MemoryInfo(); err == nil {
			s.RSSBytes = info.RSS
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.HostUsedPct = vm.UsedPercent
	}
	return s
}
