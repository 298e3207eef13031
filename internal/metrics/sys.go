package metrics

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

var startedAt = time.Now()

// Health is a snapshot of the running process and of the data directory.
type Health struct {
	HeapMB     uint64
	SysMB      uint64
	Goroutines int
	Uptime     time.Duration
	Storage    Storage
}

// Storage splits the data directory by what the planner keeps there.
type Storage struct {
	// DatabaseBytes covers SQLite files and their -wal/-shm companions.
	DatabaseBytes int64
	// ListFiles and ListBytes count the per-user lists of the file backend.
	ListFiles  int
	ListBytes  int64
	OtherBytes int64
}

// Total is the size of everything under the data directory.
func (s Storage) Total() int64 {
	return s.DatabaseBytes + s.ListBytes + s.OtherBytes
}

func (s Storage) String() string {
	out := fmt.Sprintf("%s (database %s", FormatBytes(s.Total()), FormatBytes(s.DatabaseBytes))
	if s.ListFiles > 0 {
		out += fmt.Sprintf(", %d lists %s", s.ListFiles, FormatBytes(s.ListBytes))
	}
	return out + ")"
}

// CheckHealth reads process stats and sizes dataDir. A missing directory
// reports empty storage.
func CheckHealth(dataDir string) Health {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return Health{
		HeapMB:     m.HeapAlloc >> 20,
		SysMB:      m.Sys >> 20,
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(startedAt).Truncate(time.Second),
		Storage:    scanStorage(dataDir),
	}
}

func scanStorage(dataDir string) Storage {
	var s Storage
	_ = filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		name := d.Name()
		switch {
		case isDatabaseFile(name):
			s.DatabaseBytes += info.Size()
		case filepath.Ext(name) == ".json" && filepath.Base(filepath.Dir(path)) == "lists":
			s.ListFiles++
			s.ListBytes += info.Size()
		default:
			s.OtherBytes += info.Size()
		}
		return nil
	})
	return s
}

func isDatabaseFile(name string) bool {
	for _, suffix := range []string{".db", ".db-wal", ".db-shm", ".db-journal"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
