package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/roach88/orderingest/internal/archive"
	"github.com/roach88/orderingest/internal/extract"
	"github.com/roach88/orderingest/internal/fingerprint"
	"github.com/roach88/orderingest/internal/ledger"
	"github.com/roach88/orderingest/internal/order"
	"github.com/roach88/orderingest/internal/output"
)

// Extractor turns raw file bytes into a table.
type Extractor interface {
	Extract(ctx context.Context, name string, data []byte) (*extract.Table, error)
}

// Ledger records run history. It is written to, never read from, during a
// run: the archive alone decides what was processed.
type Ledger interface {
	BeginRun(ctx context.Context, id string, started time.Time) error
	RecordOutcome(ctx context.Context, o ledger.Outcome) error
	FinishRun(ctx context.Context, r ledger.Run) error
}

// committer moves a converted file into the archive.
type committer interface {
	Commit(ctx context.Context, src string, d fingerprint.Digest) (archive.ArchivedFile, error)
}

// Config describes the directories and collaborators of a Runner.
type Config struct {
	InboundDir   string
	ArchiveDir   string
	ProcessedDir string

	// Extensions selects inbound files by suffix (case-insensitive). Empty
	// means every regular file.
	Extensions []string

	Namer archive.Namer
	Retry archive.RetryPolicy

	// Directory is required; a run without it cannot resolve any shop.
	Directory       order.Directory
	PendingStatuses []string

	Extractor Extractor
	Columns   *extract.Columns
	ShopToken *extract.ShopToken

	Locale string
	Header []string

	Workers int

	// RemoveArchivedDuplicates deletes inbound files whose content is
	// already archived. Duplicates of content claimed earlier in the same
	// run are never removed.
	RemoveArchivedDuplicates bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the durable log.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithProgress sets where the one-line-per-file progress goes.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) { r.progress = w }
}

// WithClock overrides the wall clock.
func WithClock(c Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithRunIDGenerator overrides run ID generation.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(r *Runner) { r.ids = g }
}

// WithLedger records every run in l.
func WithLedger(l Ledger) Option {
	return func(r *Runner) { r.ledger = l }
}

// WithSleeper overrides how archive moves and output writes wait between
// attempts.
func WithSleeper(s archive.Sleeper) Option {
	return func(r *Runner) { r.sleep = s }
}

// Runner executes batches. A Runner may run many batches, one at a time.
type Runner struct {
	inbound    string
	extensions map[string]bool
	removeDups bool
	workers    int
	prefixLen  int

	index     *archive.Index
	mover     committer
	extractor Extractor
	columns   *extract.Columns
	token     *extract.ShopToken
	stage     *order.Stage
	sorter    *order.Sorter
	writer    *output.Writer

	logger   *slog.Logger
	progress io.Writer
	clock    Clock
	ids      RunIDGenerator
	ledger   Ledger
	sleep    archive.Sleeper

	mu sync.Mutex // guards progress output
}

// New builds a Runner. A nil Directory is a CONFIG_MISSING error.
func New(cfg Config, opts ...Option) (*Runner, error) {
	if cfg.Directory == nil {
		return nil, NewConfigMissing("shop directory", errors.New("no directory loaded"))
	}
	if cfg.InboundDir == "" || cfg.ArchiveDir == "" || cfg.ProcessedDir == "" {
		return nil, errors.New("pipeline: inbound, archive and processed directories are required")
	}

	r := &Runner{
		inbound:    cfg.InboundDir,
		extensions: make(map[string]bool, len(cfg.Extensions)),
		removeDups: cfg.RemoveArchivedDuplicates,
		workers:    max(cfg.Workers, 1),
		extractor:  cfg.Extractor,
		columns:    cfg.Columns,
		token:      cfg.ShopToken,
		logger:     slog.Default(),
		progress:   io.Discard,
		clock:      SystemClock{},
		ids:        UUIDv7Generator{},
		sleep:      archive.TimerSleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, ext := range cfg.Extensions {
		r.extensions[strings.ToLower(ext)] = true
	}

	namer := cfg.Namer
	if namer.Tag == "" {
		namer = archive.DefaultNamer()
	}
	r.prefixLen = fingerprint.ClampPrefixLength(namer.PrefixLength)

	retry := cfg.Retry
	if retry.Attempts == 0 {
		retry = archive.DefaultRetryPolicy()
	}

	if r.extractor == nil {
		r.extractor = extract.DefaultRegistry("")
	}
	if r.columns == nil {
		r.columns = extract.NewColumns(nil)
	}
	if r.token == nil {
		tok, err := extract.NewShopToken(extract.DefaultShopTokenPattern)
		if err != nil {
			return nil, err
		}
		r.token = tok
	}

	sorter, err := order.NewSorter(cfg.Locale)
	if err != nil {
		return nil, err
	}
	r.sorter = sorter

	pending := cfg.PendingStatuses
	if len(pending) == 0 {
		pending = order.DefaultPendingStatuses
	}
	r.stage = &order.Stage{Directory: cfg.Directory, Pending: order.NewStatusMatcher(pending...)}
	r.writer = &output.Writer{
		Dir:    cfg.ProcessedDir,
		Header: cfg.Header,
		Retry:  retry,
		Sleep:  r.sleep,
		Logger: r.logger,
	}
	r.index = archive.NewIndex(cfg.ArchiveDir, namer)
	r.mover = archive.NewMover(cfg.ArchiveDir, namer,
		archive.WithRetryPolicy(retry),
		archive.WithSleeper(r.sleep),
		archive.WithLogger(r.logger),
	)
	return r, nil
}

// FileOutcome is one inbound file's result.
type FileOutcome struct {
	Seq    int // 1-based discovery order
	Path   string
	Name   string
	Digest fingerprint.Digest

	// Token is the shop identifier embedded in the file name, if any.
	Token string

	State  State
	Detail string
	Err    error

	Records    int
	Issues     []order.Issue
	OutputPath string
	ArchivedAs string

	// Removed is set when an already-archived duplicate was deleted from
	// the inbound directory.
	Removed bool

	outName string
	batch   *order.Batch
	shops   []string
}

// Status is the audit status of the file's final state.
func (o *FileOutcome) Status() Status {
	return StatusOf(o.State)
}

// Code is the error code behind the outcome, or "" for processed files.
func (o *FileOutcome) Code() ErrorCode {
	switch o.State {
	case Duplicate:
		return CodeDuplicateContent
	case Errored:
		if c := CodeOf(o.Err); c != "" {
			return c
		}
		return CodeFileError
	}
	return ""
}

// ShopLabel is the shop identifier shown in the audit line: the file name
// token, else the shop(s) found in the records, else "-".
func (o *FileOutcome) ShopLabel() string {
	switch {
	case o.Token != "":
		return o.Token
	case len(o.shops) > 0:
		return strings.Join(o.shops, ",")
	}
	return "-"
}

// advance moves o to state to. Transitions are fixed in code, so a
// disallowed one is a bug.
func (o *FileOutcome) advance(to State) {
	if err := Transition(o.State, to); err != nil {
		panic(fmt.Sprintf("pipeline: %s: %v", o.Name, err))
	}
	o.State = to
}

func (o *FileOutcome) fail(err *Error) {
	o.advance(Errored)
	o.Err = err
	o.Detail = err.Message
	if err.Err != nil {
		o.Detail += ": " + err.Err.Error()
	}
}

// Summary describes a finished run.
type Summary struct {
	RunID    string
	Started  time.Time
	Finished time.Time

	Processed int
	Skipped   int
	Errored   int

	Files []FileOutcome

	// MergedPath is empty only when the run was cancelled or the merged
	// write failed.
	MergedPath      string
	MergedCount     int
	MergeDuplicates int
}

// Run processes everything currently in the inbound directory.
//
// File-level failures are reported in the Summary, not as an error. The
// error is non-nil only when the inbound directory cannot be listed, the
// context is cancelled, or the merged output cannot be written; in the
// latter two cases the Summary is still returned.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{RunID: r.ids.Generate(), Started: r.clock.Now()}
	logger := r.logger.With("run", sum.RunID)

	paths, err := r.scan()
	if err != nil {
		return nil, err
	}
	logger.Info("run started", "inbound", r.inbound, "files", len(paths))

	ledgerOK := r.ledger != nil
	if ledgerOK {
		if err := r.ledger.BeginRun(ctx, sum.RunID, sum.Started); err != nil {
			logger.Warn("ledger unavailable, run not recorded", "error", err)
			ledgerOK = false
		}
	}

	files := r.discover(paths)
	claims := archive.NewClaims()
	var work []*FileOutcome
	for _, o := range files {
		if r.classify(ctx, logger, o, claims, false) {
			work = append(work, o)
		}
	}
	r.nameOutputs(work, output.MergedName(sum.Started))
	r.convertAll(ctx, logger, work)

	var runErr error
	if err := ctx.Err(); err != nil {
		runErr = fmt.Errorf("run cancelled: %w", err)
	} else {
		runErr = r.merge(ctx, logger, sum, files)
	}

	sum.Finished = r.clock.Now()
	for _, o := range files {
		switch o.State {
		case Archived:
			sum.Processed++
		case Duplicate:
			sum.Skipped++
		case Errored:
			sum.Errored++
		}
		sum.Files = append(sum.Files, *o)
	}
	if ledgerOK {
		r.record(ctx, logger, sum)
	}
	logger.Info("run finished",
		"processed", sum.Processed, "skipped", sum.Skipped, "errored", sum.Errored,
		"merged", sum.MergedPath, "merged_records", sum.MergedCount)
	return sum, runErr
}

// Plan fingerprints and classifies the inbound files without converting,
// moving or deleting anything.
func (r *Runner) Plan(ctx context.Context) ([]FileOutcome, error) {
	paths, err := r.scan()
	if err != nil {
		return nil, err
	}
	files := r.discover(paths)
	claims := archive.NewClaims()
	out := make([]FileOutcome, 0, len(files))
	for _, o := range files {
		r.classify(ctx, r.logger, o, claims, true)
		out = append(out, *o)
	}
	return out, nil
}

// scan lists candidate inbound files in name order. Hidden files and the
// lock stubs spreadsheet editors leave next to open workbooks are ignored.
func (r *Runner) scan() ([]string, error) {
	entries, err := os.ReadDir(r.inbound)
	if err != nil {
		return nil, fmt.Errorf("scan inbound: %w", err)
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		if len(r.extensions) > 0 && !r.extensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		paths = append(paths, filepath.Join(r.inbound, name))
	}
	sort.Strings(paths)
	return paths, nil
}

func (r *Runner) discover(paths []string) []*FileOutcome {
	files := make([]*FileOutcome, len(paths))
	for i, p := range paths {
		name := filepath.Base(p)
		files[i] = &FileOutcome{
			Seq:   i + 1,
			Path:  p,
			Name:  name,
			Token: r.token.Find(name),
			State: Discovered,
		}
	}
	return files
}

// classify fingerprints o and checks it against the archive and the run's
// claims. It reports whether o is new. In dry-run mode nothing on disk
// changes and no audit line is written.
func (r *Runner) classify(ctx context.Context, logger *slog.Logger, o *FileOutcome, claims *archive.Claims, dryRun bool) bool {
	finish := func() {
		if !dryRun {
			r.report(logger, o)
		}
	}
	if err := ctx.Err(); err != nil {
		o.fail(newFileError(o.Name, "fingerprint", err))
		finish()
		return false
	}

	d, err := fingerprint.SumFile(o.Path)
	if err != nil {
		o.fail(newFileError(o.Name, "fingerprint", err))
		finish()
		return false
	}
	o.Digest = d
	o.advance(Fingerprinted)

	c, err := (&archive.Classifier{Index: r.index, Claims: claims}).Classify(d, o.Name)
	if err != nil {
		o.fail(newFileError(o.Name, "classify", err))
		finish()
		return false
	}
	if c.Verdict == archive.New {
		o.advance(New)
		return true
	}

	o.advance(Duplicate)
	o.Detail = c.Reason()
	if c.Archived() {
		o.ArchivedAs = c.ArchivedAs
	}
	if !dryRun && c.Archived() && r.removeDups {
		if err := os.Remove(o.Path); err != nil {
			logger.Warn("could not remove archived duplicate", "file", o.Name, "error", err)
		} else {
			o.Removed = true
			o.Detail += ", removed from inbound"
		}
	}
	finish()
	return false
}

// nameOutputs picks each new file's per-input output name in discovery
// order. Names are compared case-insensitively; a file whose plain name is
// taken gets its digest prefix, or the full digest, appended.
func (r *Runner) nameOutputs(work []*FileOutcome, reserved ...string) {
	taken := make(map[string]bool, len(work)+len(reserved))
	for _, n := range reserved {
		taken[strings.ToLower(n)] = true
	}
	for _, o := range work {
		candidates := []string{
			output.PerInputName(o.Name),
			output.TaggedName(o.Name, o.Digest.Prefix(r.prefixLen)),
			output.TaggedName(o.Name, o.Digest.String()),
		}
		o.outName = candidates[len(candidates)-1]
		for _, c := range candidates {
			if !taken[strings.ToLower(c)] {
				o.outName = c
				break
			}
		}
		taken[strings.ToLower(o.outName)] = true
	}
}

// convertAll runs convert for every new file on the configured number of
// workers and returns once all of them are terminal.
func (r *Runner) convertAll(ctx context.Context, logger *slog.Logger, work []*FileOutcome) {
	jobs := make(chan *FileOutcome)
	var wg sync.WaitGroup
	for range min(r.workers, len(work)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for o := range jobs {
				r.convert(ctx, logger, o)
				r.report(logger, o)
			}
		}()
	}
	for _, o := range work {
		jobs <- o
	}
	close(jobs)
	wg.Wait()
}

// convert takes a new file through extraction, filtering, output and
// archive. The archive move happens only after the output is durable.
func (r *Runner) convert(ctx context.Context, logger *slog.Logger, o *FileOutcome) {
	if err := ctx.Err(); err != nil {
		o.fail(newFileError(o.Name, "read", err))
		return
	}

	data, err := os.ReadFile(o.Path)
	if err != nil {
		o.fail(newFileError(o.Name, "read", err))
		return
	}
	if fingerprint.Sum(data) != o.Digest {
		o.fail(newFileError(o.Name, "read", errors.New("content changed after fingerprinting")))
		return
	}

	table, err := r.extractor.Extract(ctx, o.Name, data)
	if err != nil {
		o.fail(newFileError(o.Name, "extract", err))
		return
	}
	mapping, err := r.columns.Resolve(table.Header)
	if err != nil {
		o.fail(newFileError(o.Name, "extract", err))
		return
	}
	o.advance(Extracted)
	for _, f := range mapping.Missing {
		logger.Debug("optional column absent", "file", o.Name, "field", string(f))
	}

	batch := r.stage.Filter(o.Name, o.Token, mapping.Rows(table))
	o.advance(Filtered)
	o.Issues = batch.Issues
	o.shops = distinctShops(batch.Records)
	r.logIssues(logger, o)
	logger.Debug("filtered",
		"file", o.Name, "rows", batch.Rows, "pending", batch.Pending,
		"duplicates", batch.Duplicates, "records", batch.Count())

	path, err := r.writer.Write(ctx, o.outName, batch.Records)
	if err != nil {
		o.fail(newFileError(o.Name, "write", err))
		return
	}
	o.OutputPath = path
	o.advance(OutputWritten)

	af, err := r.mover.Commit(ctx, o.Path, o.Digest)
	if err != nil {
		o.fail(newFileError(o.Name, "archive", err))
		return
	}
	o.ArchivedAs = af.Name
	o.Records = batch.Count()
	o.batch = batch
	o.advance(Archived)
	o.Detail = fmt.Sprintf("%d records to %s, archived as %s",
		o.Records, filepath.Base(path), af.Name)
}

func (r *Runner) logIssues(logger *slog.Logger, o *FileOutcome) {
	for _, is := range o.Issues {
		level := slog.LevelError
		if !is.Dropped() {
			level = slog.LevelWarn
		}
		logger.Log(context.Background(), level, is.String(),
			"file", o.Name, "code", is.Kind.String(), "line", is.Line)
	}
}

// merge combines the batches of every archived file in discovery order and
// writes the merged output. It runs even when nothing was processed.
func (r *Runner) merge(ctx context.Context, logger *slog.Logger, sum *Summary, files []*FileOutcome) error {
	var batches []*order.Batch
	for _, o := range files {
		if o.State == Archived {
			batches = append(batches, o.batch)
		}
	}
	merged := order.Merge(batches, r.sorter)
	path, err := r.writer.Write(ctx, output.MergedName(sum.Started), merged.Records)
	if err != nil {
		logger.Error("merged output failed", "error", err)
		return fmt.Errorf("write merged output: %w", err)
	}
	sum.MergedPath = path
	sum.MergedCount = len(merged.Records)
	sum.MergeDuplicates = merged.Duplicates
	logger.Info("merged",
		"inputs", len(batches), "records", merged.Input,
		"duplicates", merged.Duplicates, "path", path)
	fmt.Fprintf(r.progress, "merged %d records from %d files into %s\n",
		sum.MergedCount, len(batches), filepath.Base(path))
	return nil
}

// report writes the audit line and the progress line for a terminal file.
func (r *Runner) report(logger *slog.Logger, o *FileOutcome) {
	hash := "-"
	if !o.Digest.IsZero() {
		hash = o.Digest.Prefix(r.prefixLen)
	}
	level := slog.LevelInfo
	if o.State == Errored {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level,
		AuditLine(o.Status(), o.ShopLabel(), hash, o.Name+": "+o.Detail),
		"file", o.Name, "digest", o.Digest.String(), "state", o.State.String())

	r.mu.Lock()
	defer r.mu.Unlock()
	switch o.State {
	case Archived:
		fmt.Fprintf(r.progress, "%-17s %s (%d records)\n", o.Status(), o.Name, o.Records)
	case Errored:
		fmt.Fprintf(r.progress, "%-17s %s: %s\n", o.Status(), o.Name, o.Detail)
	default:
		fmt.Fprintf(r.progress, "%-17s %s\n", o.Status(), o.Name)
	}
}

// AuditLine formats one file outcome for the durable log.
func AuditLine(status Status, shop, hash, detail string) string {
	return fmt.Sprintf("%s | %s | hash=%s | %s", status, shop, hash, detail)
}

func (r *Runner) record(ctx context.Context, logger *slog.Logger, sum *Summary) {
	// The ledger is best effort; a cancelled run still gets its outcomes.
	ctx = context.WithoutCancel(ctx)
	for i := range sum.Files {
		o := &sum.Files[i]
		digest := ""
		if !o.Digest.IsZero() {
			digest = o.Digest.String()
		}
		err := r.ledger.RecordOutcome(ctx, ledger.Outcome{
			RunID:      sum.RunID,
			Seq:        o.Seq,
			File:       o.Name,
			Digest:     digest,
			Status:     string(o.Status()),
			ShopID:     o.ShopLabel(),
			Detail:     o.Detail,
			Records:    o.Records,
			ArchivedAs: o.ArchivedAs,
		})
		if err != nil {
			logger.Warn("ledger write failed", "file", o.Name, "error", err)
		}
	}
	err := r.ledger.FinishRun(ctx, ledger.Run{
		ID:          sum.RunID,
		StartedAt:   sum.Started,
		FinishedAt:  sum.Finished,
		Processed:   sum.Processed,
		Skipped:     sum.Skipped,
		Errored:     sum.Errored,
		MergedPath:  sum.MergedPath,
		MergedCount: sum.MergedCount,
	})
	if err != nil {
		logger.Warn("ledger write failed", "error", err)
	}
}

func distinctShops(records []order.Record) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, rec := range records {
		if !seen[rec.ShopID] {
			seen[rec.ShopID] = true
			ids = append(ids, rec.ShopID)
		}
	}
	sort.Strings(ids)
	return ids
}
