// Package swagger holds a hand-maintained document for the core room and
// compiler routes. It covers a subset of the @Router annotations in
// controllers; running swag init -g main.go -o config/swagger --outputTypes go
// replaces it with the full generated document.
package swagger

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
        "/ping": {
            "get": {
                "description": "Returns a basic message",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Endpoint just pings the server",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "properties": {"message": {"type": "string"}}
                        }
                    }
                }
            }
        },
        "/api/rooms/create": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Creates a room",
                "parameters": [
                    {
                        "description": "Room data",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/controllers.createRoomRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/api/rooms/join": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Joins a room",
                "parameters": [
                    {
                        "description": "Join data",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/controllers.joinRoomRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"},
                    "404": {"description": "Not Found"},
                    "410": {"description": "Gone"}
                }
            }
        },
        "/api/compiler/execute": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["compiler"],
                "summary": "Runs code once",
                "parameters": [
                    {
                        "description": "Code, language (default cpp) and stdin",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/controllers.executeCodeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "502": {"description": "Bad Gateway"}
                }
            }
        }
    },
    "definitions": {
        "controllers.createRoomRequest": {
            "type": "object",
            "properties": {
                "creatorUsername": {"type": "string"},
                "name": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "controllers.joinRoomRequest": {
            "type": "object",
            "properties": {
                "password": {"type": "string"},
                "roomId": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "controllers.executeCodeRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "input": {"type": "string"},
                "language": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "CodeCollab API",
	Description:      "Gin-Gonic server for collaborative rooms, chat and code execution",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
