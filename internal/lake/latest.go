package lake

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/angelcm/medallion-etl-go/internal/errs"
)

// LatestFile returns the path of the file in dir whose embedded timestamp
// is greatest among files named <prefix>_<YYYYMMDD_HHMMSS><ext>. Names that
// belong to a longer prefix family sharing the directory (marketing_metrics_*
// next to marketing_*) are skipped; a candidate of this family whose
// timestamp segment does not parse fails the whole lookup. There is no
// fallback to filesystem mtime.
func LatestFile(dir, prefix, ext string) (string, error) {
	const op = "LatestFile"
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errs.Wrap(errs.KindIO, op, err, "listing %s", dir)
	}

	tsLen := len(TimestampLayout)
	type candidate struct {
		name string
		ts   time.Time
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix+"_") || !strings.HasSuffix(name, ext) {
			continue
		}
		seg := strings.TrimSuffix(strings.TrimPrefix(name, prefix+"_"), ext)
		if len(seg) > tsLen {
			// Anything between the prefix and a valid timestamp tail means
			// the name carries a longer prefix, not a malformed timestamp.
			if _, err := time.Parse(TimestampLayout, seg[len(seg)-tsLen:]); err == nil {
				continue
			}
		}
		ts, err := time.Parse(TimestampLayout, seg)
		if err != nil {
			return "", errs.Wrap(errs.KindParse, op, err,
				"filename %q has no parsable timestamp segment", name)
		}
		candidates = append(candidates, candidate{name: name, ts: ts})
	}
	if len(candidates) == 0 {
		return "", errs.New(errs.KindNotFound, op,
			"no %s_*%s files in %s", prefix, ext, dir)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].ts.Equal(candidates[j].ts) {
			return candidates[i].ts.After(candidates[j].ts)
		}
		return candidates[i].name > candidates[j].name
	})
	return filepath.Join(dir, candidates[0].name), nil
}
