// Package report writes run batches as tabular records and publishes them to blob storage.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/naka-gawa/gh-issue-collector/internal/domain"
)

// DateLayout renders the run date as MM/DD/YYYY.
const DateLayout = "01/02/2006"

// Header is the fixed schema shared by the historical and the recent record.
var Header = []string{
	"Date",
	"SDK Name",
	"Issues",
	"New Issues",
	"Stale Issues",
	"Unassigned Issues",
	"Enhancements",
	"Under Investigation",
}

// Row renders one summary in Header order.
func Row(s domain.RepositorySummary) []string {
	return []string{
		s.Date.Format(DateLayout),
		s.Repository,
		strconv.Itoa(s.Issues),
		strconv.Itoa(s.NewIssues),
		strconv.Itoa(s.StaleIssues),
		strconv.Itoa(s.Unassigned),
		strconv.Itoa(s.Enhancements),
		strconv.Itoa(s.UnderInvestigation),
	}
}

// Write encodes the batch as CSV, preceded by the header when withHeader is set.
func Write(w io.Writer, batch domain.RunBatch, withHeader bool) error {
	cw := csv.NewWriter(w)
	if withHeader {
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, s := range batch {
		if err := cw.Write(Row(s)); err != nil {
			return fmt.Errorf("write row for %s: %w", s.Repository, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// AppendHistory appends the batch to the historical record at path. The header
// is only written when the file is new or empty.
func AppendHistory(path string, batch domain.RunBatch) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat history %s: %w", path, err)
	}
	if err := Write(f, batch, info.Size() == 0); err != nil {
		return fmt.Errorf("append history %s: %w", path, err)
	}
	return f.Close()
}

// WriteRecent replaces the recent record at path with the batch.
func WriteRecent(path string, batch domain.RunBatch) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create recent %s: %w", path, err)
	}
	defer f.Close()

	if err := Write(f, batch, true); err != nil {
		return fmt.Errorf("write recent %s: %w", path, err)
	}
	return f.Close()
}
