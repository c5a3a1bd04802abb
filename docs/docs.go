// Package docs registers the OpenAPI document of the triaxis API with swag.
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
        "/analysis/{task_id}": {
            "get": {
                "description": "Pending, failed, or succeeded with the result payload",
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Get job status",
                "parameters": [
                    {"type": "string", "description": "Job ID", "name": "task_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.JobStatus"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/analyze": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Analyze every registered device",
                "parameters": [
                    {"description": "Analysis window", "name": "window", "in": "body", "required": true, "schema": {"$ref": "#/definitions/resources.windowRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/models.FanOut"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/devices": {
            "get": {
                "description": "List all devices, filtered by owner or resolved by external device id",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "List devices",
                "parameters": [
                    {"type": "string", "description": "Owner", "name": "owner", "in": "query"},
                    {"type": "string", "description": "External device ID", "name": "device_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Device"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            },
            "post": {
                "description": "Register a new device under its external id",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Register a device",
                "parameters": [
                    {"description": "Device registration", "name": "device", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.DeviceRegistration"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Device"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/devices/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Get a device by ID",
                "parameters": [
                    {"type": "integer", "description": "Internal device ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Device"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/devices/{id}/analysis": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "List stored analysis results of a device",
                "parameters": [
                    {"type": "integer", "description": "Internal device ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.AnalysisResult"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/devices/{id}/analytics": {
            "get": {
                "description": "Min, max, count, sum and median of each axis inside the window",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Synchronous per-axis statistics",
                "parameters": [
                    {"type": "integer", "description": "Internal device ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Window start (RFC 3339)", "name": "start_time", "in": "query", "required": true},
                    {"type": "string", "description": "Window end (RFC 3339)", "name": "end_time", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.DeviceAnalytics"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/devices/{id}/analyze": {
            "post": {
                "description": "Enqueue an averaging job over the device's readings in the window",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Analyze one device",
                "parameters": [
                    {"type": "integer", "description": "Internal device ID", "name": "id", "in": "path", "required": true},
                    {"description": "Analysis window", "name": "window", "in": "body", "required": true, "schema": {"$ref": "#/definitions/resources.windowRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/resources.taskResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/devices/{id}/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["readings"],
                "summary": "List readings in a window",
                "parameters": [
                    {"type": "integer", "description": "Internal device ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Window start (RFC 3339)", "name": "start_time", "in": "query", "required": true},
                    {"type": "string", "description": "Window end (RFC 3339)", "name": "end_time", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Reading"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["readings"],
                "summary": "Record a reading",
                "parameters": [
                    {"type": "integer", "description": "Internal device ID", "name": "id", "in": "path", "required": true},
                    {"description": "3-axis sample", "name": "reading", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ReadingInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Reading"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/users/{owner}/analyze": {
            "post": {
                "description": "Enqueue one job per device. The response maps device ids to job ids.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Analyze all devices of an owner",
                "parameters": [
                    {"type": "string", "description": "Owner", "name": "owner", "in": "path", "required": true},
                    {"description": "Analysis window", "name": "window", "in": "body", "required": true, "schema": {"$ref": "#/definitions/resources.windowRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/models.FanOut"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        }
    },
    "definitions": {
        "errors.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "details": {},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "models.AnalysisResult": {
            "type": "object",
            "properties": {
                "avg_x": {"type": "number"},
                "avg_y": {"type": "number"},
                "avg_z": {"type": "number"},
                "created_at": {"type": "string"},
                "device_id": {"type": "integer"},
                "end_time": {"type": "string"},
                "id": {"type": "integer"},
                "start_time": {"type": "string"},
                "task_id": {"type": "string"},
                "total_records": {"type": "integer"}
            }
        },
        "models.Device": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "device_id": {"type": "string"},
                "id": {"type": "integer"},
                "owner": {"type": "string"}
            }
        },
        "models.DeviceAnalysis": {
            "type": "object",
            "properties": {
                "avg_x": {"type": "number"},
                "avg_y": {"type": "number"},
                "avg_z": {"type": "number"},
                "device_id": {"type": "integer"},
                "end_time": {"type": "string"},
                "start_time": {"type": "string"},
                "total_records": {"type": "integer"}
            }
        },
        "models.DeviceAnalytics": {
            "type": "object",
            "properties": {
                "x": {"$ref": "#/definitions/stats.Summary"},
                "y": {"$ref": "#/definitions/stats.Summary"},
                "z": {"$ref": "#/definitions/stats.Summary"}
            }
        },
        "models.DeviceRegistration": {
            "type": "object",
            "properties": {
                "device_id": {"type": "string"},
                "owner": {"type": "string"}
            }
        },
        "models.FanOut": {
            "type": "object",
            "properties": {
                "jobs": {"type": "object", "additionalProperties": {"type": "string"}},
                "task_id": {"type": "string"}
            }
        },
        "models.JobStatus": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "jobs": {"type": "object", "additionalProperties": {"type": "string"}},
                "no_data": {"type": "boolean"},
                "result": {"$ref": "#/definitions/models.DeviceAnalysis"},
                "results": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.DeviceAnalysis"}},
                "status": {"type": "string"},
                "task_id": {"type": "string"}
            }
        },
        "models.Reading": {
            "type": "object",
            "properties": {
                "device_id": {"type": "integer"},
                "id": {"type": "string"},
                "timestamp": {"type": "string"},
                "x": {"type": "number"},
                "y": {"type": "number"},
                "z": {"type": "number"}
            }
        },
        "models.ReadingInput": {
            "type": "object",
            "properties": {
                "timestamp": {"type": "string"},
                "x": {"type": "number"},
                "y": {"type": "number"},
                "z": {"type": "number"}
            }
        },
        "resources.taskResponse": {
            "type": "object",
            "properties": {
                "task_id": {"type": "string"}
            }
        },
        "resources.windowRequest": {
            "type": "object",
            "properties": {
                "end_time": {"type": "string"},
                "start_time": {"type": "string"}
            }
        },
        "stats.Summary": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "max": {"type": "number"},
                "median": {"type": "number"},
                "min": {"type": "number"},
                "sum": {"type": "number"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Triaxis API",
	Description:      "Ingestion and asynchronous analysis of 3-axis sensor readings.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
