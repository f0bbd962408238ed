package main

import (
	"github.com/sirupsen/logrus"

	"github.com/DevvyDoo/Leveling-Overhaul/internal/config"
	"github.com/DevvyDoo/Leveling-Overhaul/internal/persistence/indexdb"
)

// openIndex opens the SQLite read model unless it is disabled by
// VC_DISABLE_DB or VC_INDEX_BACKEND=none. A nil index is valid.
func openIndex(cfg config.Config, log *logrus.Entry) (*indexdb.SQLiteIndex, error) {
	if !cfg.IndexEnabled() {
		log.WithFields(logrus.Fields{
			"disable_db": cfg.DisableDB,
			"backend":    cfg.IndexBackend,
		}).Info("index disabled")
		return nil, nil
	}
	idx, err := indexdb.OpenSQLite(cfg.IndexPath())
	if err != nil {
		return nil, err
	}
	log.WithField("path", cfg.IndexPath()).Info("index opened")
	return idx, nil
}
