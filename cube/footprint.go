package cube

import (
	"encoding/json"
	"fmt"

	geo "github.com/nci/geometry"
)

// Footprint returns the extent of m as a GeoJSON polygon feature in the
// raster's own CRS.
func Footprint(m Metadata) (*geo.Feature, error) {
	w, h := float64(m.Width), float64(m.Height)

	var ring [][]float64
	for _, corner := range [][2]float64{{0, 0}, {0, h}, {w, h}, {w, 0}, {0, 0}} {
		x, y := m.Transform.Apply(corner[0], corner[1])
		ring = append(ring, []float64{x, y})
	}

	raw, err := json.Marshal(map[string]interface{}{
		"type": "Feature",
		"geometry": map[string]interface{}{
			"type":        "Polygon",
			"coordinates": [][][]float64{ring},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("footprint: %v", err)
	}

	var feat geo.Feature
	if err := json.Unmarshal(raw, &feat); err != nil {
		return nil, fmt.Errorf("footprint: %v", err)
	}
	return &feat, nil
}
