// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/main.go
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
        "/api/auth/signin": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Вход по email и паролю",
                "parameters": [
                    {
                        "description": "Email и пароль",
                        "name": "credentials",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Credentials"}
                    }
                ],
                "responses": {
                    "200": {"description": "Сессия и состояние", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Некорректный JSON", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Неверные учетные данные", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/navigate": {
            "get": {
                "produces": ["application/json"],
                "tags": ["navigation"],
                "summary": "Проверка перехода на маршрут",
                "description": "Возвращает решение guard: proceed или redirect (login / home).",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Полный путь, например /admin/teams?tab=1",
                        "name": "path",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/guard.Decision"}},
                    "400": {"description": "path не указан", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/matches/live": {
            "get": {
                "produces": ["application/json"],
                "tags": ["matches"],
                "summary": "Матчи на табло (active или paused)",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/divisions/{divisionID}/standings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Таблица дивизиона",
                "parameters": [
                    {"type": "string", "description": "Division ID", "name": "divisionID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Дивизион не найден", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/preferences": {
            "get": {
                "produces": ["application/json"],
                "tags": ["preferences"],
                "summary": "Язык и тема текущего клиента",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["preferences"],
                "summary": "Сохранить язык и/или тему",
                "parameters": [
                    {
                        "description": "locale: en | nl | fr; theme_id из /api/themes",
                        "name": "input",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/services.PreferencesInput"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Неизвестный язык или тема", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "models.Credentials": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "guard.Redirect": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "path": {"type": "string"},
                "query": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "guard.Decision": {
            "type": "object",
            "properties": {
                "proceed": {"type": "boolean"},
                "redirect": {"$ref": "#/definitions/guard.Redirect"},
                "reason": {"type": "string"},
                "route": {"type": "string"},
                "waited": {"type": "boolean"},
                "timed_out": {"type": "boolean"},
                "phases": {"type": "array", "items": {"type": "string"}}
            }
        },
        "services.PreferencesInput": {
            "type": "object",
            "properties": {
                "locale": {"type": "string"},
                "theme_id": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Hockey Madness API",
	Description:      "Scoreboard backend: sessions, navigation guard, matches and tournaments.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
