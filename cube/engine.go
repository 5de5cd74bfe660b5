package cube

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/nci/gcube/metrics"
	"github.com/sirupsen/logrus"
)

const (
	// OutputDriver is the tiled raster format every cube is written in.
	OutputDriver = "GTiff"
	CubeExt      = ".tif"
)

// Cube is the (tensor, table, metadata) triple returned by the readers.
type Cube struct {
	Tensor   *Tensor
	Table    *Table
	Metadata Metadata
}

// Engine reads and writes cubes through a Backend. It holds no state
// between calls.
type Engine struct {
	backend Backend
	log     logrus.FieldLogger
	metrics metrics.Logger
}

type Option func(*Engine)

// WithLogger sets the sink for progress messages. By default they are
// discarded.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics ships one metrics record per operation to l.
func WithMetrics(l metrics.Logger) Option {
	return func(e *Engine) {
		e.metrics = l
	}
}

func New(backend Backend, opts ...Option) *Engine {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	e := &Engine{backend: backend, log: quiet}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) collector(op, path string) *metrics.MetricsCollector {
	mc := metrics.NewMetricsCollector(e.metrics)
	mc.Info.Op = op
	mc.Info.Path = path
	return mc
}

// CubePath is where a cube named name is written inside destDir.
func CubePath(destDir, name string) string {
	return filepath.Join(destDir, name+CubeExt)
}

func tempPath(destDir, name string) string {
	return filepath.Join(destDir, fmt.Sprintf(".%s-%s%s", name, uuid.NewString(), CubeExt))
}

func closeDataset(ds Dataset, err *error) {
	if cerr := ds.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
