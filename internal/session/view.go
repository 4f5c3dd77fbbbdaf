package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/pysugar/nexus-console/internal/db/models"
)

// Source is the part of the admin API the session view reads from.
type Source interface {
	GetSessionDetails(ctx context.Context, sessionID string, sequence *int) (*models.SessionDetails, error)
	GetSessionRequests(ctx context.Context, sessionID string, page, pageSize int, order string) (*models.SessionRequestPage, error)
	HasSessionMessages(ctx context.Context, sessionID string, sequence *int) (bool, error)
}

// State is the load state of the messages view.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateError   State = "error"
	StateLoaded  State = "loaded"
)

// ErrStale is returned when a newer load superseded the call.
var ErrStale = errors.New("session: superseded by a newer request")

// MessagesSnapshot is what the messages view currently shows.
type MessagesSnapshot struct {
	SessionID   string
	Sequence    *int
	State       State
	Details     *models.SessionDetails
	Err         error
	HasMessages *bool
}

// MessagesView loads the detail of one request in a session. Only the latest
// Load and the latest HasMessages check may change what it shows.
type MessagesView struct {
	src Source

	loads  Latest
	checks Latest

	mu   sync.Mutex
	snap MessagesSnapshot
	// request the HasMessages flag was checked for
	checkedSession string
	checkedSeq     *int
}

func NewMessagesView(src Source) *MessagesView {
	return &MessagesView{src: src, snap: MessagesSnapshot{State: StateIdle}}
}

// Snapshot returns the current view state.
func (v *MessagesView) Snapshot() MessagesSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap
}

// Load fetches the details for (sessionID, sequence). A nil sequence selects the
// latest request. It returns ErrStale, leaving the view untouched, when another
// Load started before this one finished.
func (v *MessagesView) Load(ctx context.Context, sessionID string, sequence *int) (MessagesSnapshot, error) {
	ctx, token := v.loads.Begin(ctx)
	defer v.loads.Finish(token)

	v.mu.Lock()
	if v.loads.Current(token) {
		var has *bool
		if v.checkedSession == sessionID && sameSequence(v.checkedSeq, sequence) {
			has = v.snap.HasMessages
		}
		v.snap = MessagesSnapshot{SessionID: sessionID, Sequence: copyInt(sequence), State: StateLoading, HasMessages: has}
	}
	v.mu.Unlock()

	details, err := v.src.GetSessionDetails(ctx, sessionID, sequence)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.loads.Current(token) {
		return v.snap, ErrStale
	}
	if err != nil {
		log.Printf("[Session] Load %s failed: %v", sessionID, err)
		v.snap.State = StateError
		v.snap.Err = err
		return v.snap, err
	}
	v.snap.State = StateLoaded
	v.snap.Details = details
	return v.snap, nil
}

// CheckHasMessages asks whether the request captured a messages payload, which
// decides whether the legacy export is offered.
func (v *MessagesView) CheckHasMessages(ctx context.Context, sessionID string, sequence *int) (bool, error) {
	ctx, token := v.checks.Begin(ctx)
	defer v.checks.Finish(token)

	has, err := v.src.HasSessionMessages(ctx, sessionID, sequence)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.checks.Current(token) {
		return false, ErrStale
	}
	v.checkedSession = sessionID
	v.checkedSeq = copyInt(sequence)
	if err != nil {
		v.snap.HasMessages = nil
		return false, err
	}
	v.snap.HasMessages = &has
	return has, nil
}

// Export returns the file name and indented body of the loaded payload of kind.
func (v *MessagesView) Export(kind ExportKind) (string, []byte, bool) {
	snap := v.Snapshot()
	if snap.State != StateLoaded {
		return "", nil, false
	}
	raw := ExportPayload(snap.Details, kind)
	if raw == nil {
		return "", nil, false
	}
	body, err := MarshalExport(raw)
	if err != nil {
		return "", nil, false
	}
	return ExportFilename(snap.SessionID, snap.Details.CurrentSequence, kind), body, true
}

func sameSequence(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
