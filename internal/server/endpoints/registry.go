package endpoints

import (
	"github.com/jackzampolin/regdesk/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	SwaggerSpecPath string
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Settings
		&ListSettingsEndpoint{},

		// Catalog
		&ListDocumentsEndpoint{},

		// Sessions
		&CreateSessionEndpoint{},
		&GetSessionEndpoint{},
		&DeleteSessionEndpoint{},
		&SessionDocumentsEndpoint{},
		&AddSelectionEndpoint{},
		&ClearSelectionEndpoint{},
		&UpdateStatusEndpoint{},
		&RunAnalysisEndpoint{},
		&GetAnalysisEndpoint{},
		&ExportPDFEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{SpecPath: cfg.SwaggerSpecPath},
		&SwaggerUIEndpoint{},
	}
}
