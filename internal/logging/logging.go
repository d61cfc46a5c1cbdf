// Package logging builds the logr.Logger handed to the engine from a
// zap core, for use at binary entry points.
package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
)

// New returns a zap-backed logr.Logger. Development mode switches to
// the human-readable console encoder and enables debug output.
func New(development bool) (logr.Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	zl, err := cfg.Build()
	if err != nil {
		return logr.Logger{}, err
	}
	return zapr.NewLogger(zl), nil
}
