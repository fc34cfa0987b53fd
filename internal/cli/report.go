package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/roach88/orderingest/internal/fingerprint"
	"github.com/roach88/orderingest/internal/pipeline"
)

// runReport is the JSON view of a pipeline.Summary.
type runReport struct {
	RunID       string       `json:"run_id"`
	Started     time.Time    `json:"started"`
	Finished    time.Time    `json:"finished"`
	Processed   int          `json:"processed"`
	Skipped     int          `json:"skipped"`
	Errored     int          `json:"errored"`
	MergedPath  string       `json:"merged_path,omitempty"`
	MergedCount int          `json:"merged_count"`
	LogPath     string       `json:"log_path,omitempty"`
	Files       []fileReport `json:"files"`
}

type fileReport struct {
	File       string `json:"file"`
	State      string `json:"state"`
	Status     string `json:"status,omitempty"`
	Code       string `json:"code,omitempty"`
	Shop       string `json:"shop"`
	Hash       string `json:"hash,omitempty"`
	Records    int    `json:"records,omitempty"`
	ArchivedAs string `json:"archived_as,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

func newFileReport(o *pipeline.FileOutcome, prefixLen int) fileReport {
	fr := fileReport{
		File:       o.Name,
		State:      o.State.String(),
		Status:     string(o.Status()),
		Code:       string(o.Code()),
		Shop:       o.ShopLabel(),
		Records:    o.Records,
		ArchivedAs: o.ArchivedAs,
		Detail:     o.Detail,
	}
	if !o.Digest.IsZero() {
		fr.Hash = o.Digest.Prefix(fingerprint.ClampPrefixLength(prefixLen))
	}
	return fr
}

func newRunReport(sum *pipeline.Summary, prefixLen int, logPath string) runReport {
	rr := runReport{
		RunID:       sum.RunID,
		Started:     sum.Started,
		Finished:    sum.Finished,
		Processed:   sum.Processed,
		Skipped:     sum.Skipped,
		Errored:     sum.Errored,
		MergedPath:  sum.MergedPath,
		MergedCount: sum.MergedCount,
		LogPath:     logPath,
		Files:       make([]fileReport, 0, len(sum.Files)),
	}
	for i := range sum.Files {
		rr.Files = append(rr.Files, newFileReport(&sum.Files[i], prefixLen))
	}
	return rr
}

func (rr runReport) writeText(w io.Writer) {
	fmt.Fprintf(w, "\nRun %s: %d processed, %d skipped, %d errors\n",
		rr.RunID, rr.Processed, rr.Skipped, rr.Errored)
	if rr.MergedPath != "" {
		fmt.Fprintf(w, "Merged %d records into %s\n", rr.MergedCount, rr.MergedPath)
	}
	if rr.LogPath != "" {
		fmt.Fprintf(w, "Details: %s\n", rr.LogPath)
	}
}
