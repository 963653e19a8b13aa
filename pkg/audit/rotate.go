package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// rotatingWriter appends to one physical log unit per rotation period,
// rolling to a fresh file when the current one exceeds the size bound or the
// rotation interval elapses, and pruning units past the retention age. Each
// record is self-contained, so deleting old units never corrupts what
// remains. Callers serialize access; the writer itself holds no lock.
type rotatingWriter struct {
	dir      string
	prefix   string
	maxSize  int64
	interval time.Duration
	retain   time.Duration
	now      func() time.Time

	file     *os.File
	size     int64
	openedAt time.Time
}

func newRotatingWriter(dir, prefix string, maxSize int64, interval, retain time.Duration) (*rotatingWriter, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	w := &rotatingWriter{
		dir:      dir,
		prefix:   prefix,
		maxSize:  maxSize,
		interval: interval,
		retain:   retain,
		now:      time.Now,
	}
	if err := w.rotate(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write appends one record, rotating first when a bound is crossed.
func (w *rotatingWriter) Write(p []byte) (int, error) {
	if w.needsRotation(int64(len(p))) {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) needsRotation(incoming int64) bool {
	if w.file == nil {
		return true
	}
	if w.maxSize > 0 && w.size+incoming > w.maxSize {
		return true
	}
	if w.interval > 0 && w.now().Sub(w.openedAt) >= w.interval {
		return true
	}
	return false
}

func (w *rotatingWriter) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return err
		}
		w.file = nil
	}
	name := fmt.Sprintf("%s-%s.log", w.prefix, w.now().UTC().Format("20060102-150405.000000000"))
	f, err := os.OpenFile(filepath.Join(w.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	w.file = f
	w.size = 0
	w.openedAt = w.now()
	w.prune()
	return nil
}

// prune removes log units older than the retention age.
func (w *rotatingWriter) prune() {
	if w.retain <= 0 {
		return
	}
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	cutoff := w.now().Add(-w.retain)
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), w.prefix+"-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, n := range names {
		_ = os.Remove(filepath.Join(w.dir, n))
	}
}

func (w *rotatingWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
