package migrations

import (
	"fmt"

	"gorm.io/gorm"
)

// Run applies the schema for the given record models. Each bounded context
// exposes its models from its postgres adapter so the schema lives next to the mapping.
func Run(db *gorm.DB, models ...any) error {
	if db == nil || len(models) == 0 {
		return nil
	}
	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	return nil
}
