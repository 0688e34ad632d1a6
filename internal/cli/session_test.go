package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dmehra2102/tasklists/internal/app"
	"github.com/dmehra2102/tasklists/internal/cli"
	"github.com/dmehra2102/tasklists/internal/infrastructure/memory"
	"github.com/dmehra2102/tasklists/internal/testutil"
	"go.uber.org/zap/zaptest"
)

type harness struct {
	store   *app.Store
	clock   *testutil.FakeClock
	session *cli.Session
	out     *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	clock := testutil.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	store := app.NewStore(context.Background(), memory.NewSlotRepository(),
		app.WithLogger(zaptest.NewLogger(t)),
		app.WithClock(clock),
	)
	t.Cleanup(store.Close)

	var out bytes.Buffer
	session := cli.NewSession(store, &out)
	t.Cleanup(session.Close)

	return &harness{store: store, clock: clock, session: session, out: &out}
}

// exec runs line and returns what it printed
func (h *harness) exec(line string) string {
	h.out.Reset()
	h.session.Execute(context.Background(), line)
	return h.out.String()
}

// lastTaskID returns the id of the newest task in listID as typed by a user
func (h *harness) lastTaskID(t *testing.T, listID string) string {
	t.Helper()

	list, ok := h.store.List(listID)
	if !ok || len(list.Tasks) == 0 {
		t.Fatalf("No tasks in %s", listID)
	}
	return strconv.FormatInt(list.Tasks[len(list.Tasks)-1].ID, 10)
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("Expected output to contain %q, got:\n%s", want, got)
	}
}

func TestSession_NewList(t *testing.T) {
	h := newHarness(t)

	assertContains(t, h.exec("newlist Weekend Plans"), "Created list: Weekend Plans (weekend-plans)")
	assertContains(t, h.exec("newlist weekend   plans"), "List already exists: weekend-plans")
	assertContains(t, h.exec("newlist"), "Usage: newlist <name>")

	if _, ok := h.store.List("weekend-plans"); !ok {
		t.Error("List was not created")
	}
}

func TestSession_AddAndToggle(t *testing.T) {
	h := newHarness(t)

	out := h.exec("add urgent Buy oat milk")
	assertContains(t, out, "Buy oat milk")
	assertContains(t, out, "[ ]")

	id := h.lastTaskID(t, "urgent")
	assertContains(t, h.exec("toggle urgent "+id), "[✓]")

	list, _ := h.store.List("urgent")
	if !list.Tasks[0].Completed {
		t.Error("Task was not completed")
	}

	assertContains(t, h.exec("add nowhere thing"), "No list with id nowhere")
	assertContains(t, h.exec("toggle urgent abc"), "Invalid task id: abc")
	assertContains(t, h.exec("toggle urgent 1"), "No task 1 in list urgent")
	assertContains(t, h.exec("toggle urgent"), "Usage: toggle <list-id> <task-id>")
}

func TestSession_Collapse(t *testing.T) {
	h := newHarness(t)
	h.exec("add important Renew passport")

	out := h.exec("collapse important")
	if strings.Contains(out, "Renew passport") {
		t.Errorf("Collapsed list should hide its tasks:\n%s", out)
	}
	assertContains(t, out, "▸")

	assertContains(t, h.exec("collapse important"), "Renew passport")
	assertContains(t, h.exec("collapse missing"), "No list with id missing")
}

func TestSession_DeleteConfirmAndUndo(t *testing.T) {
	h := newHarness(t)
	h.exec("add urgent A")
	idA := h.lastTaskID(t, "urgent")
	h.exec("add urgent B")

	assertContains(t, h.exec("rm urgent "+idA), `Delete "A"? (yes/no)`)
	assertContains(t, h.exec("lists"), `Delete "A"? Please answer yes or no.`)
	assertContains(t, h.exec("yes"), `Deleted "A". Type undo within 5s to restore it.`)

	list, _ := h.store.List("urgent")
	if len(list.Tasks) != 1 || list.Tasks[0].Text != "B" {
		t.Fatalf("Expected only B left, got %+v", list.Tasks)
	}

	assertContains(t, h.exec("undo"), `Restored "A".`)
	list, _ = h.store.List("urgent")
	if len(list.Tasks) != 2 || list.Tasks[1].Text != "A" {
		t.Errorf("Expected A restored at the end, got %+v", list.Tasks)
	}
}

func TestSession_DeleteDeclined(t *testing.T) {
	h := newHarness(t)
	h.exec("add urgent Keep me")
	id := h.lastTaskID(t, "urgent")

	h.exec("rm urgent " + id)
	assertContains(t, h.exec("no"), `Kept "Keep me".`)

	if _, ok := h.store.PendingDeletion(); ok {
		t.Error("Nothing should be pending after declining")
	}
	list, _ := h.store.List("urgent")
	if len(list.Tasks) != 1 {
		t.Errorf("Task should remain, got %+v", list.Tasks)
	}
}

func TestSession_UndoAfterExpiry(t *testing.T) {
	h := newHarness(t)
	h.exec("add urgent Ephemeral")
	id := h.lastTaskID(t, "urgent")
	h.exec("rm urgent " + id)
	h.exec("y")

	h.clock.Advance(app.DefaultUndoWindow)

	assertContains(t, h.exec("undo"), "Nothing to undo.")
}

func TestSession_Export(t *testing.T) {
	h := newHarness(t)
	h.exec("add urgent Print me")
	path := filepath.Join(t.TempDir(), "lists.pdf")

	assertContains(t, h.exec("export "+path), "Exported to "+path)
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Export file missing: %v", err)
	}
	assertContains(t, h.exec("export"), "Usage: export <file.pdf>")
}

func TestSession_HelpAndUnknown(t *testing.T) {
	h := newHarness(t)

	out := h.exec("help")
	for _, usage := range []string{"newlist <name>", "rm <list-id> <task-id>", "undo"} {
		assertContains(t, out, usage)
	}
	assertContains(t, h.exec("frobnicate"), "Unknown command: frobnicate")
}

func TestSession_Run(t *testing.T) {
	h := newHarness(t)
	in := strings.NewReader("newlist Groceries\nadd groceries Eggs\nquit\nadd groceries never\n")

	if err := h.session.Run(context.Background(), in); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	assertContains(t, h.out.String(), "Goodbye!")

	list, ok := h.store.List("groceries")
	if !ok || len(list.Tasks) != 1 {
		t.Errorf("Expected one task before quit, got %+v", list)
	}
}

func TestSession_RunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- h.session.Run(ctx, blockingReader{})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

// blockingReader never produces input
type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) {
	select {}
}
