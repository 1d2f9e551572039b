package database

import (
	"fmt"

	"ariga.io/atlas-provider-gorm/gormschema"

	"github.com/setuphub/setuphub/internal/domain/models"
)

// SchemaDDL renders the DDL for all models in the given dialect. The output
// is what `atlas migrate diff` consumes to produce versioned migrations.
func SchemaDDL(dialect string) (string, error) {
	ddl, err := gormschema.New(dialect).Load(models.AllModels()...)
	if err != nil {
		return "", fmt.Errorf("failed to load gorm schema: %w", err)
	}
	return ddl, nil
}
