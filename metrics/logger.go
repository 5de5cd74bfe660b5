package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

type Logger interface {
	Log(info *MetricsInfo)
}

// StdoutLogger writes each record through a logrus logger.
type StdoutLogger struct {
	log logrus.FieldLogger
}

func NewStdoutLogger(log logrus.FieldLogger) *StdoutLogger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &StdoutLogger{log: log}
}

func (l *StdoutLogger) Log(info *MetricsInfo) {
	entry := l.log.WithFields(logrus.Fields{
		"op":       info.Op,
		"path":     info.Path,
		"duration": info.Duration.String(),
		"bands":    info.Bands,
		"read":     humanize.Bytes(uint64(info.BytesRead)),
		"written":  humanize.Bytes(uint64(info.BytesWritten)),
	})
	if info.Error != "" {
		entry.WithField("error", info.Error).Warn("metrics: operation failed")
		return
	}
	entry.Info("metrics: operation done")
}

const defaultQueueSize = 2000
const defaultMaxLogFileSize = 1024 * 1024 * 1024
const defaultMaxLogFiles = 10
const logFileName = "metrics.log"

// FileLogger appends JSON records to LogDir/metrics.log from a background
// writer and rotates the file once it reaches MaxLogFileSize, keeping at
// most MaxLogFiles rotated files.
type FileLogger struct {
	MetricsQueue   chan *MetricsInfo
	LogDir         string
	MaxLogFileSize int64
	MaxLogFiles    int
	Verbose        bool

	log  logrus.FieldLogger
	done chan struct{}
	once sync.Once
}

func NewFileLogger(logDir string, maxLogFileSize int64, maxLogFiles int, verbose bool, log logrus.FieldLogger) (*FileLogger, error) {
	if maxLogFileSize <= 0 {
		maxLogFileSize = defaultMaxLogFileSize
	}
	if maxLogFiles <= 0 {
		maxLogFiles = defaultMaxLogFiles
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("metrics: %v", err)
	}

	logger := &FileLogger{
		MetricsQueue:   make(chan *MetricsInfo, defaultQueueSize),
		LogDir:         logDir,
		MaxLogFileSize: maxLogFileSize,
		MaxLogFiles:    maxLogFiles,
		Verbose:        verbose,
		log:            log,
		done:           make(chan struct{}),
	}

	f, err := logger.openLogFile()
	if err != nil {
		return nil, fmt.Errorf("metrics: log open error: %v", err)
	}
	go logger.startLogWriter(f)

	return logger, nil
}

func (l *FileLogger) Log(info *MetricsInfo) {
	l.MetricsQueue <- info
}

// Close drains the queue and closes the log file. Log must not be called
// afterwards.
func (l *FileLogger) Close() {
	l.once.Do(func() {
		close(l.MetricsQueue)
		<-l.done
	})
}

func (l *FileLogger) startLogWriter(f *os.File) {
	defer close(l.done)
	defer func() {
		if f != nil {
			f.Close()
		}
	}()

	for info := range l.MetricsQueue {
		infoStr, err := info.ToJSON()
		if err != nil {
			l.log.Errorf("FileLogger: info.ToJSON() error: %v", err)
			continue
		}

		f, err = l.tryRotateLogFile(f)
		if err != nil {
			continue
		}

		if _, err := f.WriteString(infoStr); err != nil {
			l.log.Errorf("FileLogger: write error: %v", err)
			continue
		}
		f.Sync()
	}
}

func (l *FileLogger) logFilePath() string {
	return filepath.Join(l.LogDir, logFileName)
}

func (l *FileLogger) openLogFile() (*os.File, error) {
	return os.OpenFile(l.logFilePath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func (l *FileLogger) tryRotateLogFile(currFile *os.File) (*os.File, error) {
	info, err := currFile.Stat()
	if err != nil {
		l.log.Errorf("FileLogger: log rotation error: %v", err)
		return currFile, nil
	}

	if info.Size() < l.MaxLogFileSize {
		return currFile, nil
	}

	var rotatedLogFilePath string
	for i := 0; i < l.MaxLogFiles; i++ {
		filePath := fmt.Sprintf("%s.%d", l.logFilePath(), i)
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			rotatedLogFilePath = filePath
			break
		}
	}

	if len(rotatedLogFilePath) == 0 {
		rotatedLogFilePath = l.oldestRotatedFile()
		if l.Verbose {
			l.log.Infof("FileLogger: maximum number of log files reached, overwriting %s", rotatedLogFilePath)
		}
		if err := os.Remove(rotatedLogFilePath); err != nil {
			l.log.Errorf("FileLogger: log rotation error: %v", err)
			return currFile, nil
		}
	}

	currFile.Close()
	if err := os.Rename(l.logFilePath(), rotatedLogFilePath); err != nil {
		l.log.Errorf("FileLogger: log rotation error: %v", err)
	} else if l.Verbose {
		l.log.Infof("FileLogger: log file rotated: %v", rotatedLogFilePath)
	}

	f, err := l.openLogFile()
	if err != nil {
		l.log.Errorf("FileLogger: log rotation error: %v", err)
	}
	return f, err
}

func (l *FileLogger) oldestRotatedFile() string {
	oldest := fmt.Sprintf("%s.%d", l.logFilePath(), 0)
	oldestTime := time.Now()

	entries, err := os.ReadDir(l.LogDir)
	if err != nil {
		l.log.Errorf("FileLogger: log rotation error: %v", err)
		return oldest
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasPrefix(entry.Name(), logFileName+".") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		if fi.ModTime().Before(oldestTime) {
			oldest = filepath.Join(l.LogDir, entry.Name())
			oldestTime = fi.ModTime()
		}
	}
	return oldest
}
