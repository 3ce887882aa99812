// Package docs registers the API description served at /api/swagger.json.
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
        "/api/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/decode": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Decode a licence barcode payload",
                "parameters": [
                    {"description": "hex payload", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.DecodeRequest"}},
                    {"type": "string", "description": "key version override", "name": "version", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.DecodeResponse"}},
                    "400": {"description": "invalid payload, malformed record or unknown key version", "schema": {"type": "string"}},
                    "500": {"description": "key configuration error", "schema": {"type": "string"}}
                }
            }
        },
        "/api/key-versions": {
            "get": {
                "produces": ["application/json"],
                "summary": "List the configured key versions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.KeyVersionsResponse"}}
                }
            }
        },
        "/api/issue-driving-licence": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Decode a licence and create a Yivi issuance request for it",
                "parameters": [
                    {"description": "hex payload", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.IssueLicenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.IssueLicenceResponse"}},
                    "400": {"description": "invalid payload or incomplete record", "schema": {"type": "string"}},
                    "503": {"description": "issuance not configured", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "models.DecodeRequest": {
            "type": "object",
            "properties": {"payload": {"type": "string"}}
        },
        "models.IssueLicenceRequest": {
            "type": "object",
            "properties": {"payload": {"type": "string"}, "include_photo": {"type": "boolean"}}
        },
        "models.DecodeResponse": {
            "type": "object",
            "properties": {
                "version": {"type": "string"},
                "complete": {"type": "boolean"},
                "defaulted": {"type": "array", "items": {"type": "string"}},
                "record": {"$ref": "#/definitions/sadl.Record"}
            }
        },
        "models.KeyVersionsResponse": {
            "type": "object",
            "properties": {
                "versions": {"type": "array", "items": {"type": "string"}},
                "default": {"type": "string"}
            }
        },
        "models.IssueLicenceResponse": {
            "type": "object",
            "properties": {"jwt": {"type": "string"}, "irma_server_url": {"type": "string"}}
        },
        "sadl.Record": {
            "type": "object",
            "properties": {
                "vehicle_codes": {"type": "array", "items": {"type": "string"}},
                "surname": {"type": "string"},
                "initials": {"type": "string"},
                "prdp_code": {"type": "string"},
                "id_country_of_issue": {"type": "string"},
                "licence_country_of_issue": {"type": "string"},
                "vehicle_restrictions": {"type": "array", "items": {"type": "string"}},
                "licence_number": {"type": "string"},
                "id_number": {"type": "string"},
                "id_number_type": {"type": "string"},
                "licence_code_issue_dates": {"type": "array", "items": {"type": "string", "example": "2015/06/10"}},
                "driver_restriction_codes": {"type": "string"},
                "prdp_expiry_date": {"type": "string", "x-nullable": true},
                "licence_issue_number": {"type": "string"},
                "birth_date": {"type": "string", "x-nullable": true},
                "licence_issue_date": {"type": "string", "x-nullable": true},
                "licence_expiry_date": {"type": "string", "x-nullable": true},
                "gender": {"type": "string", "enum": ["male", "female", "unknown"]},
                "image_width": {"type": "integer"},
                "image_height": {"type": "integer"},
                "image": {"type": "string", "format": "byte"},
                "complete": {"type": "boolean"},
                "defaulted": {"type": "array", "items": {"type": "string"}}
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
	Title:            "SA driving licence decoder API",
	Description:      "Decodes South African driving licence barcodes and issues them as Yivi credentials.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
