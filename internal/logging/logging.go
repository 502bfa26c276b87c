// Package logging builds the service zap logger.
package logging

import (
	"go.uber.org/zap"
)

// New returns a production logger when production is true and a
// development logger otherwise.
func New(production bool) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if production {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}
