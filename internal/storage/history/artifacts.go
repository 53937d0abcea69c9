package history

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"

	"github.com/newthinker/trendscreen/internal/report"
	"github.com/newthinker/trendscreen/internal/storage/archive"
)

// Artifacts writes each run's outputs as <name>_latest.<ext> plus a dated
// copy under history/.
type Artifacts struct {
	st archive.Storage
}

// NewArtifacts creates a writer over st.
func NewArtifacts(st archive.Storage) *Artifacts {
	return &Artifacts{st: st}
}

// LatestPath returns the path of the newest copy of an artifact.
func LatestPath(name, ext string) string {
	return fmt.Sprintf("%s_latest.%s", name, ext)
}

// DatedPath returns the history path of an artifact for asOf.
func DatedPath(name, asOf, ext string) string {
	return path.Join(Dir, fmt.Sprintf("%s_%s.%s", name, asOf, ext))
}

// Put writes both copies of one artifact.
func (a *Artifacts) Put(ctx context.Context, name, asOf, ext string, data []byte) error {
	if err := a.st.Write(ctx, LatestPath(name, ext), data); err != nil {
		return err
	}
	return a.st.Write(ctx, DatedPath(name, asOf, ext), data)
}

// PutTable writes a table as CSV.
func (a *Artifacts) PutTable(ctx context.Context, asOf string, t *report.Table) error {
	data, err := report.EncodeCSV(t)
	if err != nil {
		return err
	}
	return a.Put(ctx, t.Name, asOf, "csv", data)
}

// PutStatus writes the status JSON.
func (a *Artifacts) PutStatus(ctx context.Context, s report.Status) error {
	data, err := s.EncodeJSON()
	if err != nil {
		return err
	}
	return a.Put(ctx, "status", s.AsOf, "json", data)
}

// PutAsOf writes the as-of marker files.
func (a *Artifacts) PutAsOf(ctx context.Context, asOf string) error {
	return a.Put(ctx, "asof", asOf, "txt", []byte(asOf+"\n"))
}

// PutFile writes a single undated file such as the dashboard.
func (a *Artifacts) PutFile(ctx context.Context, name string, data []byte) error {
	return a.st.Write(ctx, name, data)
}

// ReadLatest returns the newest copy of an artifact.
func (a *Artifacts) ReadLatest(ctx context.Context, name, ext string) ([]byte, error) {
	return a.st.Read(ctx, LatestPath(name, ext))
}

// HistoryFiles returns up to k dated history paths of the named CSV
// artifact, newest first.
func (a *Artifacts) HistoryFiles(ctx context.Context, name string, k int) ([]string, error) {
	paths, err := a.st.List(ctx, Dir)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `_\d{4}-\d{2}-\d{2}\.csv$`)
	var out []string
	for _, p := range paths {
		if re.MatchString(path.Base(p)) {
			out = append(out, p)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}
