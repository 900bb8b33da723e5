package shared

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// DownloadStatus tracks a download's lifecycle (spec.md §3).
type DownloadStatus string

const (
	DownloadDownloading DownloadStatus = "downloading"
	DownloadCompleted   DownloadStatus = "completed"
	DownloadCancelled   DownloadStatus = "cancelled"
	DownloadFailed      DownloadStatus = "failed"
)

// Download is one download record.
type Download struct {
	ID        string
	URL       string
	Filename  string
	Path      string
	TabID     string
	StartedAt time.Time
	EndedAt   *time.Time
	Size      int64
	Progress  int64
	Status    DownloadStatus
	Error     string

	cancel context.CancelFunc
}

// Manager owns every active and recently completed download
// (spec.md §4.5). Active downloads stream under a background task per
// download; terminal downloads move into a bounded completed ring.
type Manager struct {
	mu        sync.Mutex
	dir       string
	active    map[string]*Download
	completed []*Download
	ringCap   int
}

// NewManager creates a download manager writing files under dir,
// retaining up to completedCap terminal downloads (default 20).
func NewManager(dir string, completedCap int) *Manager {
	return &Manager{dir: dir, active: map[string]*Download{}, ringCap: completedCap}
}

// Start creates a download record and streams src into a file under
// the manager's directory in a background goroutine, reporting
// progress as it reads. Start takes ownership of src and closes it
// once streaming ends.
func (m *Manager) Start(ctx context.Context, url, filename, tabID string, src io.ReadCloser, size int64) *Download {
	ctx, cancel := context.WithCancel(ctx)
	now := time.Now()
	d := &Download{
		ID: uuid.NewString(), URL: url, Filename: filename,
		Path: filepath.Join(m.dir, filename), TabID: tabID,
		StartedAt: now, Size: size, Status: DownloadDownloading, cancel: cancel,
	}

	m.mu.Lock()
	m.active[d.ID] = d
	m.mu.Unlock()

	go m.stream(ctx, d, src)
	return d
}

func (m *Manager) stream(ctx context.Context, d *Download, src io.ReadCloser) {
	defer src.Close()

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		m.finish(d, DownloadFailed, err.Error())
		return
	}
	f, err := os.Create(d.Path)
	if err != nil {
		m.finish(d, DownloadFailed, err.Error())
		return
	}
	defer f.Close()

	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			_ = os.Remove(d.Path)
			m.finish(d, DownloadCancelled, "")
			return
		default:
		}

		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				m.finish(d, DownloadFailed, werr.Error())
				return
			}
			m.mu.Lock()
			d.Progress += int64(n)
			m.mu.Unlock()
		}
		if err == io.EOF {
			m.finish(d, DownloadCompleted, "")
			return
		}
		if err != nil {
			m.finish(d, DownloadFailed, err.Error())
			return
		}
	}
}

func (m *Manager) finish(d *Download, status DownloadStatus, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	d.Status = status
	d.Error = errMsg
	d.EndedAt = &now
	delete(m.active, d.ID)
	m.completed = append(m.completed, d)
	if len(m.completed) > m.ringCap {
		m.completed = m.completed[len(m.completed)-m.ringCap:]
	}
}

// Cancel marks a download cancelled and removes any partial file.
// Live in-flight downloads bound to a tab are never silently dropped
// from the ring; they are recorded terminal with status "cancelled"
// (spec.md §5 invariant: "eviction never removes a live in-flight
// download").
func (m *Manager) Cancel(id string) bool {
	m.mu.Lock()
	d, ok := m.active[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	d.cancel()
	return true
}

// CancelForTab cancels every active download bound to tabID, used when
// a tab closes mid-download (spec.md §4.7 edge case).
func (m *Manager) CancelForTab(tabID string) {
	m.mu.Lock()
	var toCancel []*Download
	for _, d := range m.active {
		if d.TabID == tabID {
			toCancel = append(toCancel, d)
		}
	}
	m.mu.Unlock()
	for _, d := range toCancel {
		d.cancel()
	}
}

// Get returns a download by id, searching both active and completed.
func (m *Manager) Get(id string) (Download, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.active[id]; ok {
		return *d, true
	}
	for _, d := range m.completed {
		if d.ID == id {
			return *d, true
		}
	}
	return Download{}, false
}

// ProgressString reports bytes transferred and, when total size is known,
// percent complete, formatted for human consumption in admin views.
func (d Download) ProgressString() string {
	if d.Size <= 0 {
		return humanize.Bytes(uint64(d.Progress))
	}
	pct := float64(d.Progress) / float64(d.Size) * 100
	return humanize.Bytes(uint64(d.Progress)) + " / " + humanize.Bytes(uint64(d.Size)) +
		" (" + humanize.FormatFloat("#.#", pct) + "%)"
}

// Completed returns a snapshot of the completed ring.
func (m *Manager) Completed() []Download {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Download, len(m.completed))
	for i, d := range m.completed {
		out[i] = *d
	}
	return out
}
