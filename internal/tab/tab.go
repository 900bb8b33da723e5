// Package tab implements per-tab session state (spec.md C6): history,
// form data, tab-scoped cookies and local storage, scroll/zoom, find-in-page,
// and load metrics.
package tab

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxHistory is the default history trim length (spec.md §4.6).
	DefaultMaxHistory = 50

	minZoom = 0.5
	maxZoom = 3.0
)

var (
	ErrTabNotFound     = errors.New("tab: not found")
	ErrNoHistoryEntry  = errors.New("tab: no current history entry")
)

// HistoryEntry is one navigation entry.
type HistoryEntry struct {
	URL     string
	Title   string
	ScrollY float64
}

// FindState is the in-page find status (spec.md §4.6).
type FindState struct {
	Query         string
	CurrentMatch  int
	TotalMatches  int
}

// Metrics tracks load/render timing for a tab.
type Metrics struct {
	LoadStart  time.Time
	LoadEnd    time.Time
	RenderTime time.Duration
}

// Tab holds one browser tab's mutable state. All mutation goes through
// methods on *Tab, which take their own lock; Manager only coordinates
// tab lifetime and lookup.
type Tab struct {
	ID          string
	CreatedAt   time.Time
	PrivacyMode bool

	mu           sync.Mutex
	history      []HistoryEntry
	historyIndex int
	maxHistory   int

	forms map[string]map[string]map[string]string // url -> formId -> field -> value

	cookies      map[string]map[string]tabCookie // domain -> name -> cookie
	localStorage map[string]map[string]string     // domain -> key -> value

	zoom    float64
	scrollX float64
	scrollY float64
	maxScrollY float64

	find FindState

	metrics Metrics
	loading bool
	title   string
	content []byte
	contentType string
	errMsg  string
}

type tabCookie struct {
	Value   string
	Expires *time.Time
}

func (c tabCookie) expired(now time.Time) bool {
	return c.Expires != nil && c.Expires.Before(now)
}

// New creates a tab with the given maxHistory (0 uses the default).
func New(maxHistory int, privacyMode bool) *Tab {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Tab{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now(),
		PrivacyMode:  privacyMode,
		historyIndex: -1,
		maxHistory:   maxHistory,
		forms:        map[string]map[string]map[string]string{},
		cookies:      map[string]map[string]tabCookie{},
		localStorage: map[string]map[string]string{},
		zoom:         1.0,
		maxScrollY:   1 << 20,
	}
}

// Navigate appends a history entry. If the tab is not at the tip of
// history, the tail is truncated first (spec.md §4.6). Oldest entries
// are trimmed once len(history) > maxHistory.
func (t *Tab) Navigate(url, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.historyIndex >= 0 && t.historyIndex < len(t.history)-1 {
		t.history = t.history[:t.historyIndex+1]
	}
	t.history = append(t.history, HistoryEntry{URL: url, Title: title})
	t.historyIndex = len(t.history) - 1

	if len(t.history) > t.maxHistory {
		overflow := len(t.history) - t.maxHistory
		t.history = t.history[overflow:]
		t.historyIndex -= overflow
	}

	t.title = title
	t.scrollX, t.scrollY = 0, 0
}

// NavigateBack snapshots the current scrollY into the current entry,
// then moves the history index back one, returning the new entry.
func (t *Tab) NavigateBack() (HistoryEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.historyIndex <= 0 {
		return HistoryEntry{}, ErrNoHistoryEntry
	}
	t.snapshotScrollLocked()
	t.historyIndex--
	return t.history[t.historyIndex], nil
}

// NavigateForward is the mirror of NavigateBack.
func (t *Tab) NavigateForward() (HistoryEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.historyIndex < 0 || t.historyIndex >= len(t.history)-1 {
		return HistoryEntry{}, ErrNoHistoryEntry
	}
	t.snapshotScrollLocked()
	t.historyIndex++
	return t.history[t.historyIndex], nil
}

func (t *Tab) snapshotScrollLocked() {
	if t.historyIndex >= 0 && t.historyIndex < len(t.history) {
		t.history[t.historyIndex].ScrollY = t.scrollY
	}
}

// History returns a snapshot of the tab's navigation history and the
// current index.
func (t *Tab) History() ([]HistoryEntry, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]HistoryEntry, len(t.history))
	copy(out, t.history)
	return out, t.historyIndex
}

// SetFormField records one field's value for the given url/form scope.
func (t *Tab) SetFormField(url, formID, field, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	byForm, ok := t.forms[url]
	if !ok {
		byForm = map[string]map[string]string{}
		t.forms[url] = byForm
	}
	fields, ok := byForm[formID]
	if !ok {
		fields = map[string]string{}
		byForm[formID] = fields
	}
	fields[field] = value
}

// FormData returns a copy of the stored fields for url/formID.
func (t *Tab) FormData(url, formID string) map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	fields, ok := t.forms[url][formID]
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// ClearForm removes form data scoped to url, or just url+formID when
// formID is non-empty.
func (t *Tab) ClearForm(url, formID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if formID == "" {
		delete(t.forms, url)
		return
	}
	if byForm, ok := t.forms[url]; ok {
		delete(byForm, formID)
	}
}

// SetCookie stores a tab-scoped cookie. In privacy mode the write is a
// no-op (spec.md §4.6: privacy-mode bypasses all persistence).
func (t *Tab) SetCookie(domain, name, value string, expires *time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.PrivacyMode {
		return
	}
	byName, ok := t.cookies[domain]
	if !ok {
		byName = map[string]tabCookie{}
		t.cookies[domain] = byName
	}
	byName[name] = tabCookie{Value: value, Expires: expires}
}

// GetCookie returns a tab-scoped cookie, lazily purging it if expired.
func (t *Tab) GetCookie(domain, name string, now time.Time) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	byName, ok := t.cookies[domain]
	if !ok {
		return "", false
	}
	c, ok := byName[name]
	if !ok {
		return "", false
	}
	if c.expired(now) {
		delete(byName, name)
		return "", false
	}
	return c.Value, true
}

// SetLocalStorage stores a key/value pair scoped to domain. No-op in
// privacy mode.
func (t *Tab) SetLocalStorage(domain, key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.PrivacyMode {
		return
	}
	byKey, ok := t.localStorage[domain]
	if !ok {
		byKey = map[string]string{}
		t.localStorage[domain] = byKey
	}
	byKey[key] = value
}

// GetLocalStorage reads a key scoped to domain.
func (t *Tab) GetLocalStorage(domain, key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.localStorage[domain][key]
	return v, ok
}

// SetScroll clamps y to [0, maxScrollY] (spec.md §4.6).
func (t *Tab) SetScroll(x, y float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if y < 0 {
		y = 0
	}
	if y > t.maxScrollY {
		y = t.maxScrollY
	}
	t.scrollX, t.scrollY = x, y
}

// SetMaxScrollY updates the scroll clamp ceiling, e.g. once page height
// is known after render.
func (t *Tab) SetMaxScrollY(maxY float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maxScrollY = maxY
	if t.scrollY > maxY {
		t.scrollY = maxY
	}
}

// Scroll returns the current scroll position.
func (t *Tab) Scroll() (x, y float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scrollX, t.scrollY
}

// SetZoom clamps zoom to [0.5, 3.0].
func (t *Tab) SetZoom(z float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if z < minZoom {
		z = minZoom
	}
	if z > maxZoom {
		z = maxZoom
	}
	t.zoom = z
}

// Zoom returns the current zoom level.
func (t *Tab) Zoom() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.zoom
}

// StartFind begins a find-in-page session with the given match count.
func (t *Tab) StartFind(query string, totalMatches int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	current := 0
	if totalMatches > 0 {
		current = 1
	}
	t.find = FindState{Query: query, CurrentMatch: current, TotalMatches: totalMatches}
}

// FindNext cycles the current match forward, modulo TotalMatches.
func (t *Tab) FindNext() FindState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.find.TotalMatches > 0 {
		t.find.CurrentMatch = t.find.CurrentMatch%t.find.TotalMatches + 1
	}
	return t.find
}

// FindPrevious cycles the current match backward, modulo TotalMatches.
func (t *Tab) FindPrevious() FindState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.find.TotalMatches > 0 {
		t.find.CurrentMatch--
		if t.find.CurrentMatch < 1 {
			t.find.CurrentMatch = t.find.TotalMatches
		}
	}
	return t.find
}

// Find returns the current find-in-page state.
func (t *Tab) Find() FindState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.find
}

// SetLoading marks the tab as loading or not, recording LoadStart/End.
func (t *Tab) SetLoading(loading bool, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading = loading
	if loading {
		t.metrics.LoadStart = now
		t.errMsg = ""
	} else {
		t.metrics.LoadEnd = now
	}
}

// IsLoading reports whether the tab currently has a load in flight.
func (t *Tab) IsLoading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// SetContent records successfully loaded content.
func (t *Tab) SetContent(content []byte, contentType, title string, renderTime time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.content = content
	t.contentType = contentType
	t.title = title
	t.metrics.RenderTime = renderTime
	t.errMsg = ""
}

// SetError records a load failure.
func (t *Tab) SetError(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errMsg = msg
}

// Snapshot is the tab's serializable state, with expired cookies
// filtered out (spec.md §4.6: "expired cookies are filtered out on
// serialize").
type Snapshot struct {
	ID           string
	History      []HistoryEntry
	HistoryIndex int
	Zoom         float64
	ScrollX      float64
	ScrollY      float64
	Title        string
	ContentType  string
	Error        string
	Metrics      Metrics
	Cookies      map[string]map[string]string
}

// Serialize produces a pure-data snapshot suitable for session
// restore, dropping expired cookies.
func (t *Tab) Serialize(now time.Time) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	history := make([]HistoryEntry, len(t.history))
	copy(history, t.history)

	cookies := make(map[string]map[string]string, len(t.cookies))
	for domain, byName := range t.cookies {
		live := map[string]string{}
		for name, c := range byName {
			if !c.expired(now) {
				live[name] = c.Value
			}
		}
		if len(live) > 0 {
			cookies[domain] = live
		}
	}

	return Snapshot{
		ID: t.ID, History: history, HistoryIndex: t.historyIndex,
		Zoom: t.zoom, ScrollX: t.scrollX, ScrollY: t.scrollY,
		Title: t.title, ContentType: t.contentType, Error: t.errMsg,
		Metrics: t.metrics, Cookies: cookies,
	}
}
