package archive

import (
	"fmt"

	"github.com/roach88/orderingest/internal/fingerprint"
)

// Verdict classifies one inbound file's content.
type Verdict int

const (
	// New content: the caller now owns the digest for this run.
	New Verdict = iota
	// Duplicate content: already archived, or claimed earlier in this run.
	Duplicate
)

func (v Verdict) String() string {
	switch v {
	case New:
		return "NEW"
	case Duplicate:
		return "DUPLICATE"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// Classification is the result of Classifier.Classify.
type Classification struct {
	Verdict Verdict

	// ArchivedAs is the archive name holding the content, when archived.
	ArchivedAs string

	// ClaimedBy is the inbound file that claimed the digest earlier in this
	// run, when not archived.
	ClaimedBy string
}

// Archived reports whether the duplicate is backed by a durable archive entry.
func (c Classification) Archived() bool {
	return c.ArchivedAs != ""
}

// Reason is a human-readable explanation for a Duplicate verdict.
func (c Classification) Reason() string {
	switch {
	case c.Verdict == New:
		return "new content"
	case c.Archived():
		return "duplicate content, already archived as " + c.ArchivedAs
	default:
		return "duplicate content, claimed earlier in this run by " + c.ClaimedBy
	}
}

// Classifier combines the durable archive with the run's claim set.
//
// Claims are taken on first sight: if the same content appears twice in one
// inbound set and is not archived yet, only the first file proceeds, even if
// its processing later fails. The second copy stays in the inbound area and
// is picked up by the next run.
type Classifier struct {
	Index  *Index
	Claims *Claims
}

// Classify decides whether file (content d) is new for this run.
func (c *Classifier) Classify(d fingerprint.Digest, file string) (Classification, error) {
	name, archived, err := c.Index.Lookup(d)
	if err != nil {
		return Classification{}, err
	}
	if archived {
		return Classification{Verdict: Duplicate, ArchivedAs: name}, nil
	}
	if owner, ok := c.Claims.Claim(d, file); !ok {
		return Classification{Verdict: Duplicate, ClaimedBy: owner}, nil
	}
	return Classification{Verdict: New}, nil
}
