package shared

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForTerminal(t *testing.T, m *Manager, id string) Download {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		d, ok := m.Get(id)
		if ok && d.Status != DownloadDownloading {
			return d
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("download did not reach a terminal state in time")
	return Download{}
}

func TestDownloadCompletes(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, 20)

	content := "hello rednet"
	d := m.Start(context.Background(), "rdnt://file", "greeting.txt", "tab-1", io.NopCloser(strings.NewReader(content)), int64(len(content)))

	final := waitForTerminal(t, m, d.ID)
	assert.Equal(t, DownloadCompleted, final.Status)
	assert.EqualValues(t, len(content), final.Progress)

	data, err := os.ReadFile(final.Path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestDownloadCancel(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, 20)

	r, w := io.Pipe()
	d := m.Start(context.Background(), "rdnt://big", "big.bin", "tab-1", r, 0)

	ok := m.Cancel(d.ID)
	require.True(t, ok)
	w.Close()

	final := waitForTerminal(t, m, d.ID)
	assert.Equal(t, DownloadCancelled, final.Status)
	_, err := os.Stat(final.Path)
	assert.True(t, os.IsNotExist(err), "cancelled download should remove its partial file")
}

func TestDownloadCancelForTabOnlyAffectsThatTab(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, 20)

	r1, w1 := io.Pipe()
	r2, w2 := io.Pipe()
	defer w2.Close()
	d1 := m.Start(context.Background(), "rdnt://a", "a.bin", "tab-1", r1, 0)
	d2 := m.Start(context.Background(), "rdnt://b", "b.bin", "tab-2", r2, 0)

	m.CancelForTab("tab-1")
	w1.Close()

	final1 := waitForTerminal(t, m, d1.ID)
	assert.Equal(t, DownloadCancelled, final1.Status)

	live, ok := m.Get(d2.ID)
	require.True(t, ok)
	assert.Equal(t, DownloadDownloading, live.Status)
	w2.Close()
	waitForTerminal(t, m, d2.ID)
}

func TestCompletedRingIsBounded(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, 2)

	for i := 0; i < 5; i++ {
		d := m.Start(context.Background(), "rdnt://x", "x.txt", "tab", io.NopCloser(strings.NewReader("x")), 1)
		waitForTerminal(t, m, d.ID)
	}

	assert.Len(t, m.Completed(), 2)
}

func TestProgressStringFormatsKnownSize(t *testing.T) {
	d := Download{Progress: 512, Size: 1024}
	assert.Contains(t, d.ProgressString(), "%")
}
