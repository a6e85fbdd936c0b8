package repository

import (
	"strings"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"snapshotengine/src/model"
)

// AuditLogger appends history rows for state changes that touch a
// change-relevant column. It only ever writes through the transaction of the
// upsert that produced the delta.
type AuditLogger struct{}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger() *AuditLogger {
	return &AuditLogger{}
}

// MaybeAppend writes the history row for rec when delta is audit-worthy.
// The row carries the post-upsert values and rec's last update time.
func (l *AuditLogger) MaybeAppend(tx *gorm.DB, rec model.Record, delta model.Delta) (bool, error) {
	spec, err := model.SpecFor(delta.Kind)
	if err != nil {
		return false, err
	}
	if !spec.Audited() {
		return false, nil
	}

	if !delta.AuditWorthy() {
		logger.WithFields(map[string]interface{}{
			"repo":     "AuditLogger",
			"op":       "MaybeAppend",
			"kind":     delta.Kind,
			"identity": strings.Join(delta.Identity, "/"),
		}).Debug("No change-relevant field changed, skipping history row")
		return false, nil
	}

	row := rec.AuditRecord(rec.LastUpdated())
	if row == nil {
		return false, nil
	}

	if err := tx.Create(row).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "AuditLogger",
			"op":    "MaybeAppend",
			"kind":  delta.Kind,
			"table": spec.HistoryTable,
		}).WithError(err).Error("Failed to append history row")
		return false, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "AuditLogger",
		"op":       "MaybeAppend",
		"kind":     delta.Kind,
		"identity": strings.Join(delta.Identity, "/"),
		"created":  delta.Created,
		"changed":  delta.Changed,
	}).Debug("History row appended")

	return true, nil
}
