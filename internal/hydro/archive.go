package hydro

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// shapefileMember matches the per-level files of a HydroBASINS region archive,
// e.g. hybas_eu_lev08_v1c.dbf. Group 1 is the level.
var shapefileMember = regexp.MustCompile(`^hybas_[a-z]{2}_lev(\d{2})_v1c\.(shp|shx|dbf|prj|cpg)$`)

// Archive describes what was extracted from one region archive.
type Archive struct {
	Region     string   `json:"region"`
	Shapefiles []string `json:"shapefiles"` // extracted .shp paths, sorted
	Levels     []int    `json:"levels"`     // levels present, ascending
}

// extractArchive writes the catchment shapefile members of a HydroBASINS ZIP
// into destDir, flattening any folders inside the archive. Documentation and
// other members are skipped. When levels is non-empty only those levels are
// extracted.
func extractArchive(zipPath, destDir string, levels []int) (*Archive, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "hydro: open archive")
	}
	defer r.Close() //nolint:errcheck

	a := &Archive{}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := strings.ToLower(path.Base(f.Name))
		m := shapefileMember.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		level, _ := strconv.Atoi(m[1])
		if ValidateLevel(level) != nil {
			continue
		}
		if len(levels) > 0 && !slices.Contains(levels, level) {
			continue
		}

		dest := filepath.Join(destDir, name)
		if err := extractMember(f, dest); err != nil {
			return nil, err
		}
		if m[2] == "shp" {
			a.Shapefiles = append(a.Shapefiles, dest)
			if !slices.Contains(a.Levels, level) {
				a.Levels = append(a.Levels, level)
			}
		}
	}

	slices.Sort(a.Shapefiles)
	slices.Sort(a.Levels)
	return a, nil
}

func extractMember(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return eris.Wrapf(err, "hydro: open member %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "hydro: create %s", dest)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return eris.Wrapf(err, "hydro: write %s", dest)
	}
	if err := out.Close(); err != nil {
		return eris.Wrapf(err, "hydro: close %s", dest)
	}
	return nil
}
