package client

import (
	"context"
	"sync"
	"time"

	"mattertrack/internal/models"
)

// DefaultDebounce is how long the buffer waits after the last mutation
// before flushing to the server.
const DefaultDebounce = 800 * time.Millisecond

// Saver persists a full document. *Client satisfies it via PutDocument.
type Saver interface {
	PutDocument(ctx context.Context, doc models.Document) error
}

// EditBuffer holds the in-memory working copy of a user's document.
// Mutations apply synchronously and rearm a single debounce timer; once
// the buffer has been quiet for the full window, the entire document is
// sent to the server in one replace call. Saves are never retried; a
// failed save is reported through the error callback and the next edit
// rearms the timer as usual.
type EditBuffer struct {
	mu       sync.Mutex
	doc      models.Document
	loaded   bool
	timer    *time.Timer
	debounce time.Duration
	saver    Saver
	onError  func(error)
}

func NewEditBuffer(saver Saver, debounce time.Duration, onError func(error)) *EditBuffer {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &EditBuffer{
		debounce: debounce,
		saver:    saver,
		onError:  onError,
	}
}

// Load seeds the buffer from the server's document and opens the gate
// for saves. Until Load (or Reset then Load) runs, mutations are kept
// in memory but never flushed, so a half-initialized buffer can not
// overwrite server state.
func (b *EditBuffer) Load(doc models.Document) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopTimerLocked()
	b.doc = doc.Clone()
	b.doc.Normalize()
	b.loaded = true
}

// Reset clears the buffer and closes the save gate. Call on logout or
// session-check failure so stale data is never shown or saved for the
// wrong user.
func (b *EditBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopTimerLocked()
	b.doc = models.Document{}
	b.loaded = false
}

// Document returns a deep copy of the current buffer contents.
func (b *EditBuffer) Document() models.Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.doc.Clone()
}

func (b *EditBuffer) AddProject() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.doc = append(b.doc, models.Project{
		Name: "",
		Issues: []models.Issue{{
			Issue:    "",
			Statuses: []string{""},
		}},
	})
	b.rearmLocked()
}

func (b *EditBuffer) DeleteProject(project int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if project < 0 || project >= len(b.doc) {
		return
	}
	b.doc = append(b.doc[:project], b.doc[project+1:]...)
	b.rearmLocked()
}

func (b *EditBuffer) SetProjectName(project int, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if project < 0 || project >= len(b.doc) {
		return
	}
	b.doc[project].Name = name
	b.rearmLocked()
}

func (b *EditBuffer) AddIssue(project int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if project < 0 || project >= len(b.doc) {
		return
	}
	b.doc[project].Issues = append(b.doc[project].Issues, models.Issue{
		Issue:    "",
		Statuses: []string{""},
	})
	b.rearmLocked()
}

func (b *EditBuffer) DeleteIssue(project, issue int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.issueAtLocked(project, issue); !ok {
		return
	}
	issues := b.doc[project].Issues
	b.doc[project].Issues = append(issues[:issue], issues[issue+1:]...)
	b.rearmLocked()
}

func (b *EditBuffer) SetIssueText(project, issue int, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	iss, ok := b.issueAtLocked(project, issue)
	if !ok {
		return
	}
	iss.Issue = text
	b.rearmLocked()
}

func (b *EditBuffer) SetClosed(project, issue int, closed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	iss, ok := b.issueAtLocked(project, issue)
	if !ok {
		return
	}
	iss.Closed = closed
	b.rearmLocked()
}

// SetStatus updates one status line. When the last line of an open
// issue turns non-blank, a fresh blank line is appended so there is
// always room to type the next update.
func (b *EditBuffer) SetStatus(project, issue, status int, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	iss, ok := b.issueAtLocked(project, issue)
	if !ok {
		return
	}
	if status < 0 || status >= len(iss.Statuses) {
		return
	}
	iss.Statuses[status] = text

	if !iss.Closed && status == len(iss.Statuses)-1 && text != "" {
		iss.Statuses = append(iss.Statuses, "")
	}
	b.rearmLocked()
}

func (b *EditBuffer) AddStatusLine(project, issue int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	iss, ok := b.issueAtLocked(project, issue)
	if !ok {
		return
	}
	iss.Statuses = append(iss.Statuses, "")
	b.rearmLocked()
}

func (b *EditBuffer) RemoveStatusLine(project, issue, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	iss, ok := b.issueAtLocked(project, issue)
	if !ok {
		return
	}
	if status < 0 || status >= len(iss.Statuses) {
		return
	}
	iss.Statuses = append(iss.Statuses[:status], iss.Statuses[status+1:]...)
	b.rearmLocked()
}

// Flush cancels any pending timer and saves immediately. No-op before
// the initial Load.
func (b *EditBuffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	if !b.loaded {
		b.mu.Unlock()
		return nil
	}
	b.stopTimerLocked()
	doc := b.doc.Clone()
	b.mu.Unlock()

	return b.saver.PutDocument(ctx, doc)
}

func (b *EditBuffer) issueAtLocked(project, issue int) (*models.Issue, bool) {
	if project < 0 || project >= len(b.doc) {
		return nil, false
	}
	if issue < 0 || issue >= len(b.doc[project].Issues) {
		return nil, false
	}
	return &b.doc[project].Issues[issue], true
}

// rearmLocked restarts the debounce timer. Every mutation lands here,
// so rapid edits collapse into one save once the window elapses.
func (b *EditBuffer) rearmLocked() {
	if !b.loaded {
		return
	}
	b.stopTimerLocked()
	b.timer = time.AfterFunc(b.debounce, b.fire)
}

func (b *EditBuffer) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// fire runs on the timer goroutine. The snapshot is taken under the
// lock, the network call is not, so an edit arriving mid-save simply
// rearms the timer and the later full replace wins.
func (b *EditBuffer) fire() {
	b.mu.Lock()
	if !b.loaded {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	doc := b.doc.Clone()
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := b.saver.PutDocument(ctx, doc); err != nil {
		b.onError(err)
	}
}
