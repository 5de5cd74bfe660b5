package main

import (
	"context"
	"strings"
	"sync"

	"github.com/nci/gcube/catalog"
	"github.com/nci/gcube/cube"
	"github.com/nci/gcube/gdalraster"
	"github.com/nci/gcube/metrics"
	"github.com/nci/gcube/utils"
	"github.com/sirupsen/logrus"
)

// commandContext lazily builds what the subcommands share: settings,
// logger, raster backend, engine and catalog.
type commandContext struct {
	configFlag *string

	setupOnce sync.Once
	setupErr  error
	settings  *utils.Settings
	log       *logrus.Logger
	backend   *gdalraster.Backend
	metrics   *metrics.FileLogger
	engine    *cube.Engine

	catalog *catalog.Catalog
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) setup() error {
	c.setupOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		settings, err := utils.LoadSettings(path)
		if err != nil {
			c.setupErr = err
			return
		}
		log, err := utils.NewLogger(settings)
		if err != nil {
			c.setupErr = err
			return
		}
		c.settings, c.log = settings, log
		c.backend = gdalraster.New()

		opts := []cube.Option{cube.WithLogger(log)}
		if settings.MetricsDir != "" {
			fl, err := metrics.NewFileLogger(settings.MetricsDir, 0, 0, false, log)
			if err != nil {
				c.setupErr = err
				return
			}
			c.metrics = fl
			opts = append(opts, cube.WithMetrics(fl))
		} else if log.IsLevelEnabled(logrus.DebugLevel) {
			opts = append(opts, cube.WithMetrics(metrics.NewStdoutLogger(log)))
		}
		c.engine = cube.New(c.backend, opts...)
	})
	return c.setupErr
}

func (c *commandContext) openCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if err := c.setup(); err != nil {
		return nil, err
	}
	if c.catalog != nil {
		return c.catalog, nil
	}
	cat, err := catalog.Open(ctx, c.settings.CatalogDriver, c.settings.CatalogDSN)
	if err != nil {
		return nil, err
	}
	c.catalog = cat
	return cat, nil
}

func (c *commandContext) close() {
	if c.catalog != nil {
		c.catalog.Close()
	}
	if c.metrics != nil {
		c.metrics.Close()
	}
}
