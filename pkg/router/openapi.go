package router

import (
	"os"
	"path/filepath"

	"clientdesk/backend/pkg/validator"
)

// AddOpenAPIValidation adds OpenAPI request validation when a schema file
// is present; a missing schema only disables validation
func (r *Router) AddOpenAPIValidation(schemaPath string) {
	if _, err := os.Stat(schemaPath); os.IsNotExist(err) {
		r.Logger.Warn("OpenAPI schema file not found, skipping validation", "path", schemaPath)
		return
	}

	v, err := validator.NewOpenAPIValidator(schemaPath)
	if err != nil {
		r.Logger.Error("failed to initialize OpenAPI validator", "error", err)
		return
	}

	r.Engine.Use(v.Middleware())
	r.Logger.Info("OpenAPI validation enabled", "schema", schemaPath)

	// Serve the schema so clients can discover the contract
	r.Engine.Static("/api/docs", filepath.Dir(schemaPath))
}
