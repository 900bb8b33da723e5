// Package docs holds the generated swagger spec for the admin API.
// Normally produced by `swag init`; checked in here so the swagger UI
// route has something to serve without a build step.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/dns/cache": {
            "get": {
                "tags": ["dns"],
                "summary": "DNS cache snapshot",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/dns/registry": {
            "get": {
                "tags": ["dns"],
                "summary": "DNS registry snapshot",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/disputes": {
            "get": {
                "tags": ["disputes"],
                "summary": "List disputes",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/disputes/{id}": {
            "get": {
                "tags": ["disputes"],
                "summary": "Dispute detail",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/tabs/{id}": {
            "get": {
                "tags": ["tabs"],
                "summary": "Tab state",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/loader/status": {
            "get": {
                "tags": ["loader"],
                "summary": "Loader occupancy",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/search": {
            "get": {
                "tags": ["search"],
                "summary": "Search the index",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/search/suggest": {
            "get": {
                "tags": ["search"],
                "summary": "Search suggestions",
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported swagger info, registered against the
// swag runtime so ginSwagger can look it up by InstanceName.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "RedNet Core Admin API",
	Description:      "Read-mostly introspection API over a RedNet Core node's DNS, dispute, tab, loader, and search state.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
