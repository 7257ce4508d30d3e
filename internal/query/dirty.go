package query

// SaveState is the per-setting form lifecycle:
// Clean --edit--> Dirty --save--> Saving --ok--> Clean
//                                        --fail--> Dirty
type SaveState int

const (
	StateClean SaveState = iota
	StateDirty
	StateSaving
)

func (s SaveState) String() string {
	switch s {
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	default:
		return "clean"
	}
}

// Tracker keeps a local edit buffer for a single-value setting and
// compares it against the last server-confirmed value. Dirty means
// the two differ; editing back to the confirmed value clears it.
// Trackers live on the UI goroutine and are not locked.
type Tracker[T comparable] struct {
	confirmed T
	buffer    T
	synced    bool
	touched   bool
	state     SaveState
}

// Sync records a successfully fetched server value. The buffer is
// initialized from it only if the user has never touched it;
// otherwise the user's edits are kept and dirty is recomputed against
// the new confirmed value.
func (t *Tracker[T]) Sync(server T) {
	t.confirmed = server
	t.synced = true
	if !t.touched {
		t.buffer = server
	}
	t.recompute()
}

// Edit replaces the buffer with the user's current input.
func (t *Tracker[T]) Edit(v T) {
	t.buffer = v
	t.touched = true
	t.recompute()
}

// LoadDefault loads a separate default value into the buffer, e.g.
// "reset to default". Dirty follows from comparison, so a default
// equal to the confirmed value stays clean.
func (t *Tracker[T]) LoadDefault(v T) {
	t.buffer = v
	t.touched = true
	t.recompute()
}

func (t *Tracker[T]) recompute() {
	if t.state == StateSaving {
		return
	}
	if t.synced && t.buffer != t.confirmed {
		t.state = StateDirty
	} else {
		t.state = StateClean
	}
}

// BeginSave transitions to Saving and reports whether a save may
// proceed. Saving is allowed only from Dirty.
func (t *Tracker[T]) BeginSave() bool {
	if t.state != StateDirty {
		return false
	}
	t.state = StateSaving
	return true
}

// SaveSucceeded promotes the buffer to the confirmed value.
func (t *Tracker[T]) SaveSucceeded() {
	t.confirmed = t.buffer
	t.state = StateClean
	t.recompute()
}

// SaveFailed returns to Dirty; the buffer is untouched so the user's
// edits are not lost.
func (t *Tracker[T]) SaveFailed() {
	t.state = StateDirty
	t.recompute()
}

func (t *Tracker[T]) Dirty() bool      { return t.state == StateDirty }
func (t *Tracker[T]) Saving() bool     { return t.state == StateSaving }
func (t *Tracker[T]) State() SaveState { return t.state }
func (t *Tracker[T]) Buffer() T        { return t.buffer }
func (t *Tracker[T]) Confirmed() T     { return t.confirmed }
func (t *Tracker[T]) Synced() bool     { return t.synced }

// CanSave gates the save control: dirty and no save in flight.
func (t *Tracker[T]) CanSave() bool { return t.state == StateDirty }
