package history

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/trendscreen/internal/core"
	"github.com/newthinker/trendscreen/internal/report"
	"github.com/newthinker/trendscreen/internal/storage/archive"
)

// Dir holds dated copies of every artifact.
const Dir = "history"

var picksName = regexp.MustCompile(`^picks_(\d{4}-\d{2}-\d{2})\.csv$`)

// ArchiveStore reads pick sets from history/picks_YYYY-MM-DD.csv files.
// Any CSV with a Ticker column qualifies, so full picks tables written by
// the artifact writer and files from older runs are both read.
type ArchiveStore struct {
	st archive.Storage
}

// NewArchiveStore creates a store over st.
func NewArchiveStore(st archive.Storage) *ArchiveStore {
	return &ArchiveStore{st: st}
}

// PicksPath returns the history path of the picks file for asOf.
func PicksPath(asOf time.Time) string {
	return path.Join(Dir, fmt.Sprintf("%s_%s.csv", report.TablePicks, core.FormatDate(asOf)))
}

type datedFile struct {
	asOf time.Time
	path string
}

// files lists the dated picks files, oldest first. Names that do not match
// the pattern are ignored.
func (s *ArchiveStore) files(ctx context.Context) ([]datedFile, error) {
	paths, err := s.st.List(ctx, Dir)
	if err != nil {
		return nil, err
	}
	var out []datedFile
	for _, p := range paths {
		m := picksName.FindStringSubmatch(path.Base(p))
		if m == nil {
			continue
		}
		d, err := core.ParseDate(m[1])
		if err != nil {
			continue
		}
		out = append(out, datedFile{asOf: d, path: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].asOf.Before(out[j].asOf) })
	return out, nil
}

func (s *ArchiveStore) read(ctx context.Context, f datedFile) (PickSnapshot, error) {
	data, err := s.st.Read(ctx, f.path)
	if err != nil {
		return PickSnapshot{}, err
	}
	t, err := report.DecodeCSV(report.TablePicks, data)
	if err != nil {
		return PickSnapshot{}, err
	}
	if t.Header != nil && t.Column(report.TickerColumn) == nil {
		return PickSnapshot{}, fmt.Errorf("%s has no %s column", f.path, report.TickerColumn)
	}
	var symbols []string
	for _, v := range t.Column(report.TickerColumn) {
		if v = strings.TrimSpace(v); v != "" {
			symbols = append(symbols, v)
		}
	}
	return PickSnapshot{AsOf: f.asOf, Symbols: symbols}, nil
}

func (s *ArchiveStore) LatestBefore(ctx context.Context, asOf time.Time) (*PickSnapshot, error) {
	files, err := s.files(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := dateOnly(asOf)
	for i := len(files) - 1; i >= 0; i-- {
		if files[i].asOf.Before(cutoff) {
			snap, err := s.read(ctx, files[i])
			if err != nil {
				return nil, err
			}
			return &snap, nil
		}
	}
	return nil, nil
}

// Append writes a Ticker-only picks file unless one already exists for the
// date, in which case the richer artifact is kept.
func (s *ArchiveStore) Append(ctx context.Context, snap PickSnapshot) error {
	p := PicksPath(snap.AsOf)
	exists, err := s.st.Exists(ctx, p)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	t := &report.Table{Name: report.TablePicks, Header: []string{report.TickerColumn}}
	for _, sym := range snap.Symbols {
		t.Rows = append(t.Rows, []string{sym})
	}
	data, err := report.EncodeCSV(t)
	if err != nil {
		return err
	}
	return s.st.Write(ctx, p, data)
}

func (s *ArchiveStore) List(ctx context.Context) ([]PickSnapshot, error) {
	files, err := s.files(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PickSnapshot, 0, len(files))
	for _, f := range files {
		snap, err := s.read(ctx, f)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func (s *ArchiveStore) Close() error { return nil }

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
