// Package logging builds the bundle manager's zap logger.
//
// Every component receives a child of one root logger named "bundlemgr"
// (registry, hub, installer, storage, trace, sink). Production writes JSON
// lines, development writes colored console output.
//
// Configuration comes from LOG_LEVEL and LOG_DEV. An empty level means
// info. The level can be raised or lowered at runtime with SetLevel, which
// affects every child logger at once.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//	registry := bundle.NewManager(store, logger.Logger)
package logging
