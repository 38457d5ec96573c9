package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/five82/swiftrun/internal/app"
	"github.com/five82/swiftrun/internal/blobserver"
	"github.com/five82/swiftrun/internal/booking"
	"github.com/five82/swiftrun/internal/category"
	"github.com/five82/swiftrun/internal/export"
)

type harness struct {
	t          *testing.T
	configPath string
	prefsPath  string
}

func newHarness(t *testing.T, remoteURL string) harness {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	body := fmt.Sprintf("remote_url = %q\ndata_dir = %q\nrequest_timeout_seconds = 2\nlog_level = \"debug\"\n",
		remoteURL, filepath.Join(dir, "data"))
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return harness{t: t, configPath: configPath, prefsPath: filepath.Join(dir, "prefs.toml")}
}

func (h harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--config", h.configPath, "--prefs", h.prefsPath}, args...)
	err := Execute(context.Background(), full, &out, &errOut)
	return out.String(), err
}

func (h harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("swiftrun %s: %v", strings.Join(args, " "), err)
	}
	return out
}

var bookedID = regexp.MustCompile(`\(([0-9a-f]{8})\)`)

func (h harness) add(name string, extra ...string) string {
	h.t.Helper()
	args := append([]string{"add", "--customer", name, "--address", "1 Main St", "--contact", "0400", "--so", "SO-1"}, extra...)
	out := h.mustRun(args...)
	m := bookedID.FindStringSubmatch(out)
	if m == nil {
		h.t.Fatalf("add output %q has no id", out)
	}
	return m[1]
}

const offline = "http://127.0.0.1:1/api/blobs"

func TestCommandDispatch(t *testing.T) {
	var called string
	var gotArgs []string
	var verbose bool
	root := &Command{
		Name: "swiftrun",
		Subcommands: []*Command{
			{
				Name: "sync",
				Subcommands: []*Command{
					{
						Name: "join",
						Flags: func() *pflag.FlagSet {
							fs := pflag.NewFlagSet("join", pflag.ContinueOnError)
							fs.BoolVarP(&verbose, "verbose", "v", false, "")
							return fs
						},
						Run: func(args []string) error {
							called, gotArgs = "sync join", args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute([]string{"sync", "join", "-v", "abc"}, io.Discard); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if called != "sync join" || !verbose || len(gotArgs) != 1 || gotArgs[0] != "abc" {
		t.Fatalf("called=%q verbose=%v args=%v", called, verbose, gotArgs)
	}

	if err := root.Execute([]string{"nope"}, io.Discard); err == nil || !strings.Contains(err.Error(), `unknown command "nope"`) {
		t.Fatalf("unknown command error = %v", err)
	}
	if err := root.Execute([]string{"sync"}, io.Discard); err == nil {
		t.Fatal("expected error when subcommand missing")
	}

	var help bytes.Buffer
	if err := root.Execute([]string{"sync", "--help"}, &help); err != nil {
		t.Fatalf("help: %v", err)
	}
	if !strings.Contains(help.String(), "swiftrun sync <command>") || !strings.Contains(help.String(), "join") {
		t.Fatalf("help output:\n%s", help.String())
	}
}

func TestDefaultCommandStartsUI(t *testing.T) {
	var got app.Options
	c := &CLI{
		Options: app.Options{ConfigPath: "cfg.toml"},
		Out:     io.Discard,
		Err:     io.Discard,
		RunUI: func(_ context.Context, opts app.Options) error {
			got = opts
			return nil
		},
	}
	if err := c.Root(context.Background()).Execute(nil, io.Discard); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got.ConfigPath != "cfg.toml" {
		t.Fatalf("RunUI options = %+v", got)
	}
	if err := c.Root(context.Background()).Execute([]string{"bogus"}, io.Discard); err == nil {
		t.Fatal("expected unknown command error")
	}
}

func TestResolveID(t *testing.T) {
	items := []booking.Booking{{ID: "abc123"}, {ID: "abd456"}, {ID: "xyz"}}
	tests := []struct {
		arg     string
		want    string
		wantErr string
	}{
		{arg: "abc123", want: "abc123"},
		{arg: "abc", want: "abc123"},
		{arg: "x", want: "xyz"},
		{arg: "ab", wantErr: "ambiguous"},
		{arg: "q", wantErr: "no booking"},
		{arg: " ", wantErr: "empty"},
	}
	for _, tt := range tests {
		got, err := resolveID(items, tt.arg)
		if tt.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("resolveID(%q) err = %v, want %q", tt.arg, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("resolveID(%q) = %q, %v; want %q", tt.arg, got, err, tt.want)
		}
	}
}

func TestPickupLocation(t *testing.T) {
	sg, _ := category.Lookup(category.Sandgate)
	tests := map[string]string{
		"SG":           sg.Address,
		"sg":           sg.Address,
		" 9 Depot Rd ": "9 Depot Rd",
		"Other":        "Other",
		sg.Address:     sg.Address,
	}
	for in, want := range tests {
		if got := pickupLocation(in); got != want {
			t.Errorf("pickupLocation(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBookingLifecycle(t *testing.T) {
	h := newHarness(t, offline)

	first := h.add("Acme Tiles", "--cartons", "3")
	second := h.add("Bayside Plumbing", "--pickup", "WB")

	out := h.mustRun("list")
	if !strings.Contains(out, "Acme Tiles") || !strings.Contains(out, "Bayside Plumbing") {
		t.Fatalf("list output:\n%s", out)
	}
	if !strings.Contains(out, "2 deliveries, 0 delivered, 2 remaining, 4 cartons") {
		t.Fatalf("stats line missing:\n%s", out)
	}

	out = h.mustRun("list", "--pickup", "WB")
	if strings.Contains(out, "Acme Tiles") || !strings.Contains(out, "Bayside Plumbing") {
		t.Fatalf("filtered list:\n%s", out)
	}

	if out := h.mustRun("toggle", first); !strings.Contains(out, "On Board") {
		t.Fatalf("toggle output %q", out)
	}
	h.mustRun("move", second, first)

	out = h.mustRun("labels", first)
	if !strings.Contains(out, "CARTON 3 of 3") {
		t.Fatalf("labels output:\n%s", out)
	}

	if out := h.mustRun("deliver", first); !strings.Contains(out, "Delivered 1") {
		t.Fatalf("deliver output %q", out)
	}
	out = h.mustRun("list", "--history")
	if !strings.Contains(out, "Acme Tiles") || strings.Contains(out, "Bayside Plumbing") {
		t.Fatalf("history:\n%s", out)
	}

	h.mustRun("delete", second)
	out = h.mustRun("list")
	if !strings.Contains(out, "No bookings.") {
		t.Fatalf("active run after delete:\n%s", out)
	}
}

func TestAddValidation(t *testing.T) {
	h := newHarness(t, offline)
	_, err := h.run("add", "--customer", "Acme", "--cartons", "0")
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"deliveryAddress", "contact", "salesOrder", "cartons"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not name %s", err, field)
		}
	}
}

func TestCustomersAndFromContact(t *testing.T) {
	h := newHarness(t, offline)
	h.mustRun("customers", "add", "--name", "Hunter Tiles", "--address", "7 Hunter St", "--contact", "0411")
	if out := h.mustRun("customers", "add", "--name", "hunter tiles"); !strings.Contains(out, "already saved") {
		t.Fatalf("duplicate add output %q", out)
	}

	out := h.mustRun("customers", "--search", "HUNT")
	if !strings.Contains(out, "7 Hunter St") {
		t.Fatalf("search output:\n%s", out)
	}
	if out := h.mustRun("customers", "--search", "zzz"); !strings.Contains(out, "No saved contacts.") {
		t.Fatalf("empty search output %q", out)
	}

	h.mustRun("add", "--from-contact", "Hunter Tiles", "--so", "SO-9")
	out = h.mustRun("list")
	if !strings.Contains(out, "Hunter Tiles") || !strings.Contains(out, "7 Hunter St") {
		t.Fatalf("booking from contact:\n%s", out)
	}
}

func TestExportWorkbook(t *testing.T) {
	h := newHarness(t, offline)
	if _, err := h.run("export", "--out", filepath.Join(t.TempDir(), "none.xlsx")); !errors.Is(err, export.ErrNoData) {
		t.Fatalf("export of empty run err = %v", err)
	}

	id := h.add("Acme")
	h.mustRun("deliver", id)
	path := filepath.Join(t.TempDir(), "history.xlsx")
	out := h.mustRun("export", "--out", path)
	if !strings.Contains(out, "Exported 1 row(s)") {
		t.Fatalf("export output %q", out)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("workbook not written: %v", err)
	}
}

func TestArchiveBackupRestoreWipe(t *testing.T) {
	h := newHarness(t, offline)
	id := h.add("Acme")
	h.mustRun("deliver", id)

	if out := h.mustRun("archive", "list"); !strings.Contains(out, "Acme") {
		t.Fatalf("archive list:\n%s", out)
	}

	backup := filepath.Join(t.TempDir(), "archive.json.zst")
	if out := h.mustRun("archive", "backup", "--out", backup); !strings.Contains(out, "1 record(s)") {
		t.Fatalf("backup output %q", out)
	}

	// Removed from the list, the record now lives only in the archive.
	h.mustRun("delete", id)

	if _, err := h.run("archive", "wipe", "--confirm", "yes"); err == nil {
		t.Fatal("wipe without the exact phrase should fail")
	}
	h.mustRun("archive", "wipe", "--confirm", "WIPE ARCHIVE")
	if out := h.mustRun("archive", "list"); !strings.Contains(out, "Archive is empty.") {
		t.Fatalf("archive after wipe:\n%s", out)
	}

	out := h.mustRun("archive", "restore", backup)
	if !strings.Contains(out, "Restored 1 of 1 record(s)") {
		t.Fatalf("restore output %q", out)
	}
	if out := h.mustRun("archive", "list"); !strings.Contains(out, "Acme") {
		t.Fatalf("archive after restore:\n%s", out)
	}
}

func TestSyncBetweenDevices(t *testing.T) {
	srv := httptest.NewServer(blobserver.New(blobserver.Options{}).Handler())
	defer srv.Close()
	remote := srv.URL + "/api/blobs"

	phone := newHarness(t, remote)
	phone.add("Acme")
	out := phone.mustRun("sync", "bootstrap")
	key := strings.TrimSpace(strings.TrimPrefix(out, "Sync key:"))
	if key == "" {
		t.Fatalf("bootstrap output %q", out)
	}
	phone.add("Bayside")

	if out := phone.mustRun("sync", "status"); !strings.Contains(out, "connected") || !strings.Contains(out, key) {
		t.Fatalf("status output:\n%s", out)
	}

	tablet := newHarness(t, remote)
	if out := tablet.mustRun("sync", "join", key); !strings.Contains(out, "2 booking(s)") {
		t.Fatalf("join output %q", out)
	}
	out = tablet.mustRun("list")
	if !strings.Contains(out, "Acme") || !strings.Contains(out, "Bayside") {
		t.Fatalf("tablet list:\n%s", out)
	}

	tablet.mustRun("sync", "disconnect")
	if out := tablet.mustRun("sync", "status"); !strings.Contains(out, "disconnected") {
		t.Fatalf("status after disconnect:\n%s", out)
	}
}

func TestLogsCommand(t *testing.T) {
	h := newHarness(t, offline)
	h.add("Acme")

	out := h.mustRun("logs")
	if !strings.Contains(out, "local data loaded") {
		t.Fatalf("logs output:\n%s", out)
	}
	out = h.mustRun("logs", "--level", "error")
	if strings.Contains(out, "local data loaded") {
		t.Fatalf("info lines not filtered:\n%s", out)
	}
	if _, err := h.run("logs", "--level", "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
