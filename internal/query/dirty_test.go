package query

import "testing"

func TestTrackerCleanAfterFirstSync(t *testing.T) {
	var tr Tracker[string]
	tr.Sync("server value")

	if tr.Dirty() {
		t.Fatal("tracker must be clean after first fetch")
	}
	if tr.Buffer() != "server value" {
		t.Fatalf("buffer not initialized, got %q", tr.Buffer())
	}
}

func TestTrackerEditMakesDirty(t *testing.T) {
	var tr Tracker[string]
	tr.Sync("v1")

	tr.Edit("v2")
	if !tr.Dirty() {
		t.Fatal("edited buffer should be dirty")
	}

	// Editing back to the confirmed value clears dirty.
	tr.Edit("v1")
	if tr.Dirty() {
		t.Fatal("buffer equal to confirmed value should be clean")
	}
}

func TestTrackerSyncKeepsUserEdits(t *testing.T) {
	var tr Tracker[string]
	tr.Sync("v1")
	tr.Edit("my draft")

	// A background refetch must not clobber the user's buffer.
	tr.Sync("v1")
	if tr.Buffer() != "my draft" {
		t.Fatalf("refetch clobbered buffer: %q", tr.Buffer())
	}
	if !tr.Dirty() {
		t.Fatal("should stay dirty")
	}

	// Refetch that happens to match the draft clears dirty.
	tr.Sync("my draft")
	if tr.Dirty() {
		t.Fatal("buffer equal to new confirmed value should be clean")
	}
}

func TestTrackerSaveFlow(t *testing.T) {
	var tr Tracker[string]
	tr.Sync("v1")
	tr.Edit("v2")

	if !tr.BeginSave() {
		t.Fatal("dirty tracker should allow save")
	}
	if !tr.Saving() {
		t.Fatal("should be in saving state")
	}
	if tr.CanSave() {
		t.Fatal("save must be disabled while saving")
	}

	tr.SaveSucceeded()
	if tr.Dirty() {
		t.Fatal("clean after successful save")
	}
	if tr.Confirmed() != "v2" {
		t.Fatalf("confirmed not promoted, got %q", tr.Confirmed())
	}
}

func TestTrackerSaveFailureKeepsBuffer(t *testing.T) {
	var tr Tracker[string]
	tr.Sync("v1")
	tr.Edit("v2")
	tr.BeginSave()

	tr.SaveFailed()
	if !tr.Dirty() {
		t.Fatal("failed save returns to dirty")
	}
	if tr.Buffer() != "v2" {
		t.Fatalf("failed save must not lose edits, got %q", tr.Buffer())
	}
	if tr.Confirmed() != "v1" {
		t.Fatalf("confirmed must be unchanged, got %q", tr.Confirmed())
	}
}

func TestTrackerSaveDisabledWhenClean(t *testing.T) {
	var tr Tracker[string]
	tr.Sync("v1")

	if tr.CanSave() {
		t.Fatal("clean tracker must not allow save")
	}
	if tr.BeginSave() {
		t.Fatal("BeginSave on clean state must be a no-op")
	}
	if tr.Saving() {
		t.Fatal("state must be unchanged")
	}
}

func TestTrackerLoadDefault(t *testing.T) {
	var tr Tracker[string]
	tr.Sync("custom prompt")

	tr.LoadDefault("default prompt")
	if !tr.Dirty() {
		t.Fatal("default differing from confirmed should be dirty")
	}
	if tr.Buffer() != "default prompt" {
		t.Fatalf("buffer not loaded, got %q", tr.Buffer())
	}

	// Default coinciding with the confirmed value stays clean.
	var tr2 Tracker[string]
	tr2.Sync("same")
	tr2.LoadDefault("same")
	if tr2.Dirty() {
		t.Fatal("coinciding default should be clean")
	}
}

func TestTrackerUnsyncedStaysClean(t *testing.T) {
	var tr Tracker[string]
	if tr.Dirty() {
		t.Fatal("unsynced tracker has nothing to compare against")
	}
	tr.Edit("typed before fetch resolved")
	if tr.Dirty() {
		t.Fatal("dirty is defined against a confirmed value")
	}
	tr.Sync("server")
	if !tr.Dirty() {
		t.Fatal("pre-fetch edits differ from server value once synced")
	}
}

func TestTrackerComparableStruct(t *testing.T) {
	type voice struct{ ID, Name string }
	var tr Tracker[voice]
	tr.Sync(voice{ID: "v1", Name: "Nova"})

	tr.Edit(voice{ID: "v2", Name: "Atlas"})
	if !tr.Dirty() {
		t.Fatal("changed struct value should be dirty")
	}
	tr.Edit(voice{ID: "v1", Name: "Nova"})
	if tr.Dirty() {
		t.Fatal("identical struct value should be clean")
	}
}
