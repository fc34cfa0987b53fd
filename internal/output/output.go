// Package output writes per-input and merged order files.
//
// Files are written to a temporary name in the target directory, synced
// and renamed into place, so a reader (or a crash) never sees a partial
// file. Callers rely on this: an input is archived only after its output
// file is durable.
package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/orderingest/internal/archive"
	"github.com/roach88/orderingest/internal/order"
)

// Header languages.
const (
	LangZH = "zh"
	LangEN = "en"
)

var headers = map[string][]string{
	LangZH: {"分店名稱", "訂單日期", "訂單編號", "物流公司", "物流單號", "備註"},
	LangEN: {"shop_name", "order_date", "order_number", "carrier", "tracking_number", "note"},
}

// Header returns the column names for lang, defaulting to LangZH.
func Header(lang string) []string {
	if h, ok := headers[strings.ToLower(lang)]; ok {
		return h
	}
	return headers[LangZH]
}

// utf8BOM lets spreadsheet tools detect the encoding.
const utf8BOM = "\ufeff"

// MergedTimeLayout stamps merged file names.
const MergedTimeLayout = "20060102_150405"

// PerInputName is the output name for an input; it depends only on the
// input's original name, so reprocessing overwrites.
func PerInputName(original string) string {
	return "pending_orders_" + stem(original) + ".csv"
}

// TaggedName is PerInputName with tag appended to the stem. It separates
// inputs of one run whose plain names collide, e.g. orders.csv and
// orders.xlsx.
func TaggedName(original, tag string) string {
	return "pending_orders_" + stem(original) + "_" + tag + ".csv"
}

func stem(original string) string {
	base := filepath.Base(original)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// MergedName is the merged output name for a run started at t.
func MergedName(t time.Time) string {
	return "pending_orders_merged_" + t.Format(MergedTimeLayout) + ".csv"
}

// Writer writes order files into Dir. Creating the temp file and renaming
// it into place are retried under Retry when they fail with transient
// contention, such as a target held open by a spreadsheet editor.
type Writer struct {
	Dir    string
	Header []string
	Retry  archive.RetryPolicy
	Sleep  archive.Sleeper
	Logger *slog.Logger

	// Overridable in tests.
	rename func(oldpath, newpath string) error
}

// Write stores records under name and returns the full path. The column
// order is shop name, order date, order number, carrier, tracking number,
// note. Exhausted retries wrap archive.ErrLocked.
func (w *Writer) Write(ctx context.Context, name string, records []order.Record) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("output: %w", err)
	}
	path := filepath.Join(w.Dir, name)

	var tmp string
	err := w.retry(ctx, name, "create", func() error {
		var err error
		tmp, err = w.writeTemp(name, records)
		return err
	})
	if err != nil {
		return "", err
	}

	rename := w.rename
	if rename == nil {
		rename = os.Rename
	}
	err = w.retry(ctx, name, "replace", func() error {
		return rename(tmp, path)
	})
	if err != nil {
		os.Remove(tmp)
		return "", err
	}
	syncDir(w.Dir)
	return path, nil
}

// retry runs op until it succeeds, fails with a non-transient error, or
// the retry budget is spent.
func (w *Writer) retry(ctx context.Context, name, step string, op func() error) error {
	sleep := w.Sleep
	if sleep == nil {
		sleep = archive.TimerSleep
	}
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := w.Retry.Start()
	for {
		err := op()
		if err == nil {
			return nil
		}
		if !archive.IsTransient(err) {
			return fmt.Errorf("output %s: %s: %w", name, step, err)
		}
		delay, ok := r.Next()
		if !ok {
			logger.Error("output write gave up", "file", name, "step", step, "attempts", r.Attempt(), "error", err)
			return fmt.Errorf("%w: output %s after %d attempts: %v", archive.ErrLocked, name, r.Attempt(), err)
		}
		logger.Warn("output write blocked, retrying",
			"file", name, "step", step, "attempt", r.Attempt()-1, "wait", delay, "error", err)
		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("output %s: %w", name, err)
		}
	}
}

// writeTemp writes and syncs records to a hidden temp file next to name.
// On failure the temp file is removed.
func (w *Writer) writeTemp(name string, records []order.Record) (string, error) {
	f, err := os.CreateTemp(w.Dir, "."+name+".*.tmp")
	if err != nil {
		return "", err
	}
	if err := w.encode(f, records); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (w *Writer) encode(f *os.File, records []order.Record) error {
	if _, err := f.WriteString(utf8BOM); err != nil {
		return err
	}
	header := w.Header
	if header == nil {
		header = Header(LangZH)
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Sync()
}

func row(r order.Record) []string {
	return []string{r.ShopName, r.OrderDate, r.OrderNumber, r.Carrier, r.Tracking, r.Note}
}

// syncDir flushes the directory entry of a rename. Not every platform
// supports syncing a directory; failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
