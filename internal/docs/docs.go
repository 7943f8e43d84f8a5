// Package docs registers the generated Swagger specification.
// Regenerate with: swag init -g cmd/api/main.go -o internal/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type \"Bearer\" followed by a space and JWT token."
        }
    },
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new user",
                "responses": {"201": {"description": "User registered and token generated"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login user",
                "responses": {"200": {"description": "User authenticated and token generated"}}
            }
        },
        "/profile": {
            "get": {
                "tags": ["user"],
                "security": [{"BearerAuth": []}],
                "summary": "Get user profile",
                "responses": {"200": {"description": "User profile"}}
            }
        },
        "/profile/settings": {
            "put": {
                "tags": ["user"],
                "security": [{"BearerAuth": []}],
                "summary": "Update Zakat settings",
                "responses": {"200": {"description": "Updated profile"}}
            }
        },
        "/records": {
            "get": {
                "tags": ["records"],
                "security": [{"BearerAuth": []}],
                "summary": "List Nisab year records",
                "responses": {"200": {"description": "Paginated records"}}
            },
            "post": {
                "tags": ["records"],
                "security": [{"BearerAuth": []}],
                "summary": "Create a record manually",
                "responses": {"201": {"description": "Created record"}}
            }
        },
        "/records/{id}": {
            "get": {
                "tags": ["records"],
                "security": [{"BearerAuth": []}],
                "summary": "Get a Nisab year record",
                "responses": {"200": {"description": "Record with audit trail"}}
            },
            "put": {
                "tags": ["records"],
                "security": [{"BearerAuth": []}],
                "summary": "Update a record",
                "responses": {"200": {"description": "Updated record"}}
            },
            "delete": {
                "tags": ["records"],
                "security": [{"BearerAuth": []}],
                "summary": "Delete a draft record",
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/records/{id}/finalize": {
            "post": {
                "tags": ["records"],
                "security": [{"BearerAuth": []}],
                "summary": "Finalize a record",
                "responses": {"200": {"description": "Finalized record"}}
            }
        },
        "/records/{id}/unlock": {
            "post": {
                "tags": ["records"],
                "security": [{"BearerAuth": []}],
                "summary": "Unlock a finalized record",
                "responses": {"200": {"description": "Unlocked record"}}
            }
        },
        "/nisab/threshold": {
            "get": {
                "tags": ["nisab"],
                "security": [{"BearerAuth": []}],
                "summary": "Get the current Nisab threshold",
                "responses": {"200": {"description": "Threshold with source advisory"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Hawltrack API",
	Description:      "Hawltrack detects when a user's zakatable wealth crosses the Nisab threshold, tracks the lunar Hawl year, and manages the lifecycle of Nisab year records with a tamper-evident audit trail.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
