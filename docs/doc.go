// Package docs provides generated OpenAPI documentation.
//
// Regdesk API
//
//	@title			Regdesk API
//	@version		1.0
//	@description	Regulatory document selection, analysis and PDF export.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/regdesk
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/regdesk/serve.go -o ./swagger --parseDependency --parseInternal
