package utils

import (
	"fmt"
	"os"
	"strings"

	"github.com/nci/gcube/cube"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	yaml "gopkg.in/yaml.v2"
)

const (
	EnvPrefix = "GCUBE"

	KeyLogLevel      = "log_level"
	KeyLogFormat     = "log_format"
	KeyMetricsDir    = "metrics_dir"
	KeyCatalogDriver = "catalog.driver"
	KeyCatalogDSN    = "catalog.dsn"
	KeyDefaultDtype  = "default_dtype"
)

// Settings are the process-wide options of the gcube command. They come
// from an optional config file overlaid with GCUBE_* environment variables.
type Settings struct {
	LogLevel      string
	LogFormat     string
	MetricsDir    string
	CatalogDriver string
	CatalogDSN    string
	DefaultDtype  cube.DataType
}

// LoadSettings reads file, which may be empty or missing, and applies the
// environment on top, e.g. GCUBE_CATALOG_DSN for catalog.dsn.
func LoadSettings(file string) (*Settings, error) {
	v := viper.New()
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyMetricsDir, "")
	v.SetDefault(KeyCatalogDriver, "sqlite")
	v.SetDefault(KeyCatalogDSN, "gcube.db")
	v.SetDefault(KeyDefaultDtype, "float32")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("config %s: %w", file, err)
			}
		}
	}

	dtype, err := cube.ParseDataType(v.GetString(KeyDefaultDtype))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", KeyDefaultDtype, err)
	}

	return &Settings{
		LogLevel:      v.GetString(KeyLogLevel),
		LogFormat:     v.GetString(KeyLogFormat),
		MetricsDir:    v.GetString(KeyMetricsDir),
		CatalogDriver: v.GetString(KeyCatalogDriver),
		CatalogDSN:    v.GetString(KeyCatalogDSN),
		DefaultDtype:  dtype,
	}, nil
}

// NewLogger builds the command logger on stderr.
func NewLogger(s *Settings) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %v", KeyLogLevel, err)
	}
	log.SetLevel(level)

	switch strings.ToLower(s.LogFormat) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("config: %s: unknown format %q", KeyLogFormat, s.LogFormat)
	}
	return log, nil
}

// SearchSpec selects stack sources from a directory tree instead of
// listing them.
type SearchSpec struct {
	Root       string  `yaml:"root"`
	Prefix     string  `yaml:"prefix"`
	Contains   string  `yaml:"contains"`
	Suffix     string  `yaml:"suffix"`
	Expression string  `yaml:"expression"`
	MaxCloud   float64 `yaml:"max_cloud"`
}

// StackJob is a stacking manifest.
type StackJob struct {
	Name    string        `yaml:"name"`
	DestDir string        `yaml:"dest_dir"`
	Dtype   cube.DataType `yaml:"-"`
	DtypeS  string        `yaml:"dtype"`
	Sort    bool          `yaml:"sort"`
	Sources []string      `yaml:"sources"`
	Search  *SearchSpec   `yaml:"search"`
}

func LoadStackJob(file string) (*StackJob, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("stack job %s: %w", file, cube.ErrNotFound)
		}
		return nil, err
	}
	return ParseStackJob(raw)
}

func ParseStackJob(raw []byte) (*StackJob, error) {
	job := &StackJob{}
	if err := yaml.Unmarshal(raw, job); err != nil {
		return nil, fmt.Errorf("stack job: %w: %v", cube.ErrFormat, err)
	}

	if job.Name == "" {
		return nil, fmt.Errorf("stack job: %w: name is required", cube.ErrFormat)
	}
	if job.DestDir == "" {
		return nil, fmt.Errorf("stack job: %w: dest_dir is required", cube.ErrFormat)
	}
	if job.DtypeS == "" {
		job.DtypeS = "float32"
	}
	dtype, err := cube.ParseDataType(job.DtypeS)
	if err != nil {
		return nil, fmt.Errorf("stack job: %w", err)
	}
	job.Dtype = dtype
	if len(job.Sources) == 0 && job.Search == nil {
		return nil, fmt.Errorf("stack job: %w: sources or search is required", cube.ErrEmptyInput)
	}
	if job.Search != nil && job.Search.Root == "" {
		return nil, fmt.Errorf("stack job: %w: search.root is required", cube.ErrFormat)
	}
	return job, nil
}
