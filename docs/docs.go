// Package docs registers the OpenAPI document for the ArchViz API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/systems": {
            "get": {
                "produces": ["application/json"],
                "tags": ["systems"],
                "summary": "List every system with its slots",
                "responses": {
                    "200": {"description": "Systems keyed by name", "schema": {"type": "object"}},
                    "500": {"description": "Storage failure", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["systems"],
                "summary": "Create a system with every slot empty",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSystemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/MessageResponse"}},
                    "400": {"description": "EMPTY_NAME, INVALID_NAME or DUPLICATE_NAME", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/systems/{system}": {
            "delete": {
                "tags": ["systems"],
                "summary": "Delete a system and all of its slots",
                "parameters": [
                    {"type": "string", "name": "system", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "SYSTEM_NOT_FOUND", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/systems/{system}/{type}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["slots"],
                "summary": "Read one slot",
                "parameters": [
                    {"type": "string", "name": "system", "in": "path", "required": true},
                    {"type": "string", "name": "type", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Slot", "schema": {"$ref": "#/definitions/SlotResponse"}},
                    "404": {"description": "SYSTEM_NOT_FOUND or INVALID_SLOT_TYPE", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["slots"],
                "summary": "Replace the content of one slot",
                "parameters": [
                    {"type": "string", "name": "system", "in": "path", "required": true},
                    {"type": "string", "name": "type", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveSlotRequest"}}
                ],
                "responses": {
                    "200": {"description": "Saved", "schema": {"$ref": "#/definitions/MessageResponse"}},
                    "404": {"description": "SYSTEM_NOT_FOUND or INVALID_SLOT_TYPE", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/systems/{system}/{type}/view": {
            "get": {
                "produces": ["application/json"],
                "tags": ["slots"],
                "summary": "Read one slot and render its diagram",
                "parameters": [
                    {"type": "string", "name": "system", "in": "path", "required": true},
                    {"type": "string", "name": "type", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "View", "schema": {"$ref": "#/definitions/ViewResult"}},
                    "404": {"description": "SYSTEM_NOT_FOUND or INVALID_SLOT_TYPE", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/preview": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["render"],
                "summary": "Render unsaved diagram source",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PreviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "Rendered", "schema": {"$ref": "#/definitions/PreviewResponse"}},
                    "400": {"description": "EMPTY_SOURCE", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "RENDER_FAILED", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "CreateSystemRequest": {
            "type": "object",
            "properties": {"name": {"type": "string", "example": "billing"}}
        },
        "SaveSlotRequest": {
            "type": "object",
            "properties": {
                "source": {"type": "string"},
                "explanation": {"type": "string"}
            }
        },
        "PreviewRequest": {
            "type": "object",
            "properties": {"sourceText": {"type": "string"}}
        },
        "PreviewResponse": {
            "type": "object",
            "properties": {"svg": {"type": "string"}}
        },
        "MessageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "SlotResponse": {
            "type": "object",
            "properties": {
                "system": {"type": "string"},
                "type": {"type": "string"},
                "title": {"type": "string"},
                "diagramBearing": {"type": "boolean"},
                "source": {"type": "string"},
                "explanation": {"type": "string"}
            }
        },
        "ViewResult": {
            "type": "object",
            "properties": {
                "system": {"type": "string"},
                "type": {"type": "string"},
                "title": {"type": "string"},
                "diagramBearing": {"type": "boolean"},
                "source": {"type": "string"},
                "explanation": {"type": "string"},
                "markup": {"type": "string"},
                "renderError": {"type": "string"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "boolean"},
                "type": {"type": "string"},
                "message": {"type": "string"},
                "code": {"type": "string"},
                "request_id": {"type": "string"},
                "trace_id": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ArchViz API",
	Description:      "C4 architecture diagram repository with PlantUML rendering",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
