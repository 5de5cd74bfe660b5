package discovery

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nci/gcube/cube"
)

// l2aMetadata is the part of a Sentinel-2 Level-2A MTD_MSIL2A.xml file
// that MetaSearch reads.
type l2aMetadata struct {
	QualityIndicators struct {
		CloudCoverage string `xml:"Cloud_Coverage_Assessment"`
	} `xml:"Quality_Indicators_Info"`
}

// CloudCoverage reads the cloud coverage percentage from a Level-2A
// product metadata file.
func CloudCoverage(mtdPath string) (float64, error) {
	raw, err := os.ReadFile(mtdPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%s: %w", mtdPath, cube.ErrNotFound)
		}
		return 0, err
	}

	var md l2aMetadata
	if err := xml.Unmarshal(raw, &md); err != nil {
		return 0, fmt.Errorf("%s: %w: %v", mtdPath, cube.ErrFormat, err)
	}
	value := strings.TrimSpace(md.QualityIndicators.CloudCoverage)
	if value == "" {
		return 0, fmt.Errorf("%s: %w: no Cloud_Coverage_Assessment", mtdPath, cube.ErrFormat)
	}
	var cc float64
	if _, err := fmt.Sscanf(value, "%g", &cc); err != nil {
		return 0, fmt.Errorf("%s: %w: cloud coverage %q", mtdPath, cube.ErrFormat, value)
	}
	return cc, nil
}

// MetaSearch returns the .SAFE directories below root whose Level-2A
// metadata reports a cloud coverage of at most lessThan percent, sorted by
// acquisition date.
func (s *Searcher) MetaSearch(root string, lessThan float64) ([]string, error) {
	mtds, err := s.Find(root, Query{Mode: Files, Prefix: "MTD", Contains: "L2A", Suffix: ".xml", Sort: true})
	if err != nil {
		return nil, err
	}

	var accepted []string
	for _, f := range mtds {
		cc, err := CloudCoverage(f)
		if err != nil {
			return nil, fmt.Errorf("meta search: %w", err)
		}
		if cc <= lessThan {
			accepted = append(accepted, strings.SplitN(f, ".SAFE", 2)[0]+".SAFE")
			s.log.Infof("meta search: %v --> image accepted", cc)
		} else {
			s.log.Infof("meta search: %v --> image rejected", cc)
		}
	}
	return accepted, nil
}

// FindRecord returns the scene directories below root for one satellite
// path/row and year, i.e. whose name contains "<path><row>_<year>".
// path and row are three digit strings such as "081" and "036".
func (s *Searcher) FindRecord(root, path, row string, year int, sortByDate bool) ([]string, error) {
	if len(path) != 3 || len(row) != 3 {
		return nil, fmt.Errorf("find record: %w: path %q and row %q must have three digits", cube.ErrFormat, path, row)
	}
	key := fmt.Sprintf("%s%s_%d", path, row, year)

	found, err := walk(root, func(p string, d os.DirEntry) (bool, error) {
		return d.IsDir() && strings.Contains(d.Name(), key), nil
	})
	if err != nil {
		return nil, err
	}
	if sortByDate {
		if found, _, err = cube.SortByDate(found); err != nil {
			return nil, fmt.Errorf("find record: %w", err)
		}
	}
	s.log.Infof("find record: pattern '%s' * '%s' * '%d', found %d results", path, row, year, len(found))
	return found, nil
}

// SceneBands lists the band files of one granule inside a .SAFE directory
// whose names end with suffix, e.g. "_B04_10m.jp2".
func (s *Searcher) SceneBands(safeDir, suffix string) ([]string, error) {
	if !strings.HasSuffix(filepath.Clean(safeDir), ".SAFE") {
		return nil, fmt.Errorf("scene bands: %w: %s is not a .SAFE directory", cube.ErrFormat, safeDir)
	}
	return s.Find(safeDir, Query{Mode: Files, Suffix: suffix})
}
