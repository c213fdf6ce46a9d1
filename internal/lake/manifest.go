package lake

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/angelcm/medallion-etl-go/internal/errs"
)

// Manifest records the last successful run of a layer. It is published
// after both formats are on disk, so readers can treat it as a commit
// marker for the run.
type Manifest struct {
	RunID                string   `json:"runId"`
	Stage                string   `json:"stage"`
	Rows                 int      `json:"rows"`
	Files                []string `json:"files"`
	CreatedAtEpochSecond int64    `json:"createdAt"`
}

const manifestName = "manifest.latest.json"

// PublishManifest writes the layer manifest, replacing any previous one.
func PublishManifest(dir string, m Manifest) error {
	const op = "PublishManifest"
	if m.CreatedAtEpochSecond == 0 {
		m.CreatedAtEpochSecond = time.Now().UTC().Unix()
	}
	f, err := os.Create(filepath.Join(dir, manifestName))
	if err != nil {
		return errs.Wrap(errs.KindIO, op, err, "creating manifest in %s", dir)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&m); err != nil {
		return errs.Wrap(errs.KindIO, op, err, "encoding manifest in %s", dir)
	}
	return nil
}

// ReadManifest loads the layer manifest.
func ReadManifest(dir string) (Manifest, error) {
	const op = "ReadManifest"
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return Manifest{}, errs.Wrap(errs.KindIO, op, err, "reading manifest in %s", dir)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, errs.Wrap(errs.KindParse, op, err, "decoding manifest in %s", dir)
	}
	return m, nil
}
