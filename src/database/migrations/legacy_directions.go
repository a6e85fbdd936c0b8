package migrations

import (
	"fmt"

	"gorm.io/gorm"

	"snapshotengine/src/model"
)

// normalizeDirectionValues rewrites the enum values stored by the original
// engine (vnpy Direction/Offset values) into the canonical names used by the
// ingestion dispatcher, so history and current rows compare equal.
func normalizeDirectionValues(db *gorm.DB) error {
	for legacy, canonical := range model.LegacyDirections {
		if err := db.Model(&model.Position{}).
			Where(map[string]interface{}{"direction": legacy}).
			Update("direction", canonical).Error; err != nil {
			return fmt.Errorf("normalize position direction %q: %w", legacy, err)
		}

		if err := db.Model(&model.PositionHistory{}).
			Where(map[string]interface{}{"direction": legacy}).
			Update("direction", canonical).Error; err != nil {
			return fmt.Errorf("normalize position history direction %q: %w", legacy, err)
		}

		if err := db.Model(&model.Trade{}).
			Where(map[string]interface{}{"direction": legacy}).
			Update("direction", canonical).Error; err != nil {
			return fmt.Errorf("normalize trade direction %q: %w", legacy, err)
		}
	}

	for legacy, canonical := range model.LegacyOffsets {
		if err := db.Model(&model.Trade{}).
			Where(map[string]interface{}{"offset": legacy}).
			Update("offset", canonical).Error; err != nil {
			return fmt.Errorf("normalize trade offset %q: %w", legacy, err)
		}
	}

	return nil
}
