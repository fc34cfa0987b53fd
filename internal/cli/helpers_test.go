package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/orderingest/internal/testutil"
)

const shopsCSV = `platform,shop_id,shop_name,shop_status
Shopee,SH0001,台北店,TRUE
Shopee,SH0002,台中店,FALSE
Shopee,SH0004,新竹店,TRUE
`

const ordersHeader = "訂單編號,訂單狀態,訂單日期,寄送方式,包裹查詢號碼,備註\n"

const ordersA = ordersHeader +
	"A1,待出貨,2026-03-02 10:00,黑貓,T1,\n" +
	"A2,待出貨,2026-03-01 09:00,7-11,T2,\n"

const ordersB = ordersHeader +
	"A2,待出貨,2026-02-28 09:00,郵局,T2b,\n" +
	"A3,待出貨,2026-03-01 12:00,郵局,T3,\n"

var runStart = time.Date(2026, 3, 3, 8, 15, 0, 0, time.UTC)

// workspace is a self-contained project directory with a config file.
type workspace struct {
	root      string
	config    string
	inbound   string
	archive   string
	processed string
	logs      string
	shops     string
	ledger    string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	root := t.TempDir()
	w := &workspace{
		root:      root,
		config:    filepath.Join(root, "orderingest.yaml"),
		inbound:   filepath.Join(root, "data_raw"),
		archive:   filepath.Join(root, "data_archive"),
		processed: filepath.Join(root, "data_processed"),
		logs:      filepath.Join(root, "logs"),
		shops:     filepath.Join(root, "shops.csv"),
		ledger:    filepath.Join(root, "ledger.db"),
	}
	require.NoError(t, os.MkdirAll(w.inbound, 0o755))
	require.NoError(t, os.WriteFile(w.shops, []byte(shopsCSV), 0o644))
	w.writeConfig(t, "")
	return w
}

func (w *workspace) writeConfig(t *testing.T, extra string) {
	t.Helper()
	cfg := fmt.Sprintf(`paths:
  inbound: %q
  archive: %q
  processed: %q
  logs: %q
shops:
  path: %q
  platform: Shopee
ledger:
  path: %q
%s`, w.inbound, w.archive, w.processed, w.logs, w.shops, w.ledger, extra)
	require.NoError(t, os.WriteFile(w.config, []byte(cfg), 0o644))
}

func (w *workspace) add(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(w.inbound, name), []byte(content), 0o644))
}

func (w *workspace) inboundNames(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(w.inbound)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// runCommand builds a run command with a fixed clock and run IDs.
func (w *workspace) runCommand(format string, args ...string) (*cobra.Command, *bytes.Buffer) {
	root := &RootOptions{Format: format, ConfigPath: w.config}
	cmd := newRunCommand(&RunOptions{
		RootOptions: root,
		Clock:       testutil.NewFixedClock(runStart),
		RunIDs:      testutil.NewRunIDs("run-1", "run-2"),
	})
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	return cmd, buf
}

// execute runs the full root command with the workspace config.
func (w *workspace) execute(args ...string) (string, error) {
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--config", w.config}, args...))
	err := cmd.Execute()
	return buf.String(), err
}
