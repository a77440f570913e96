package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. Output goes to stderr so command
// output on stdout stays clean.
func NewLogger(level, format string) (*logrus.Logger, error) {
	return newLogger(level, format, os.Stderr)
}

func newLogger(level, format string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logg := logrus.New()
	logg.SetLevel(lvl)
	logg.SetOutput(out)
	if format == "text" {
		logg.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logg.SetFormatter(&logrus.JSONFormatter{})
	}
	return logg, nil
}
