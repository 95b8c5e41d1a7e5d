// Package docs registers the OpenAPI document served at /swagger.
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
        "/auth/signup": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign up",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SignUpRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.signUpResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Log in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.loginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/auth/forgot-password": {
            "post": {
                "tags": ["auth"],
                "summary": "Request a password reset email",
                "description": "Always answers with the same message whether or not the email is registered.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ForgotPasswordRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/auth/reset-password": {
            "post": {
                "tags": ["auth"],
                "summary": "Reset password with a token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ResetPasswordRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/expenses": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["expenses"],
                "summary": "List expenses",
                "description": "Newest date first; optional inclusive date window.",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "YYYY-MM-DD", "name": "startDate", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "endDate", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Expense"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["expenses"],
                "summary": "Add expense",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ExpenseRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Expense"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/expenses/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["expenses"],
                "summary": "Update expense",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Expense ID", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ExpenseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Expense"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["expenses"],
                "summary": "Delete expense",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "description": "Expense ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.messageResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/expenses/categories": {
            "get": {
                "tags": ["expenses"],
                "summary": "List categories",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Category"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/expenses/summary/category": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["summary"],
                "summary": "Spending by category",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "YYYY-MM-DD", "name": "startDate", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "endDate", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.CategoryTotal"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/expenses/summary/daily": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["summary"],
                "summary": "Daily spending series",
                "description": "Exactly days entries ending today, oldest first, zero-filled.",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "description": "1-366, default 7", "name": "days", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.DailyTotal"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/expenses/summary/monthly": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["summary"],
                "summary": "Monthly spending",
                "description": "Trailing months, newest first, zero-filled.",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "description": "1-120, default 12", "name": "months", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.MonthlyTotal"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/analytics/users/stats": {
            "get": {
                "security": [{"AdminToken": []}],
                "tags": ["analytics"],
                "summary": "User statistics",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.UserStats"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/analytics/users/details": {
            "get": {
                "security": [{"AdminToken": []}],
                "tags": ["analytics"],
                "summary": "Most active users",
                "produces": ["application/json"],
                "parameters": [{"type": "integer", "description": "1-100, default 10", "name": "limit", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.UserActivity"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/analytics/expenses/stats": {
            "get": {
                "security": [{"AdminToken": []}],
                "tags": ["analytics"],
                "summary": "Expense statistics",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ExpenseStats"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness and database check",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.healthResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.healthResponse"}}
                }
            }
        },
        "/ws": {
            "get": {
                "tags": ["summary"],
                "summary": "Live spending summary",
                "description": "Upgrades to a WebSocket and pushes summary frames (7-day series and category totals) for the caller.",
                "parameters": [
                    {"type": "string", "description": "JWT when no Authorization header is sent", "name": "token", "in": "query"},
                    {"type": "string", "description": "Push period, e.g. 10s (max 60s)", "name": "interval", "in": "query"},
                    {"type": "integer", "description": "Push period in milliseconds", "name": "interval_ms", "in": "query"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.SignUpRequest": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {
                "name": {"type": "string", "example": "Alice"},
                "email": {"type": "string", "example": "alice@x.com"},
                "password": {"type": "string", "example": "secret1"}
            }
        },
        "handlers.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "example": "alice@x.com"},
                "password": {"type": "string", "example": "secret1"}
            }
        },
        "handlers.ForgotPasswordRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {"email": {"type": "string", "example": "alice@x.com"}}
        },
        "handlers.ResetPasswordRequest": {
            "type": "object",
            "required": ["newPassword", "token"],
            "properties": {
                "token": {"type": "string"},
                "newPassword": {"type": "string", "example": "newsecret"}
            }
        },
        "handlers.ExpenseRequest": {
            "type": "object",
            "required": ["category"],
            "properties": {
                "amount": {"type": "number", "example": 42.5},
                "category": {"type": "string", "example": "Food"},
                "description": {"type": "string", "example": "Lunch"},
                "date": {"type": "string", "example": "2024-01-05"}
            }
        },
        "handlers.signUpResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "user": {"$ref": "#/definitions/models.User"}
            }
        },
        "handlers.loginResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/models.User"}
            }
        },
        "handlers.messageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "handlers.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "Invalid credentials"}}
        },
        "handlers.healthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "database": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "models.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "models.Category": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "color": {"type": "string"}
            }
        },
        "models.Expense": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "amount": {"type": "number"},
                "category": {"type": "string"},
                "category_color": {"type": "string"},
                "description": {"type": "string"},
                "date": {"type": "string"},
                "user_id": {"type": "integer"},
                "created_at": {"type": "string"}
            }
        },
        "models.CategoryTotal": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "category_color": {"type": "string"},
                "total_amount": {"type": "number"},
                "transaction_count": {"type": "integer"}
            }
        },
        "models.DailyTotal": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "total": {"type": "number"}
            }
        },
        "models.MonthlyTotal": {
            "type": "object",
            "properties": {
                "year": {"type": "integer"},
                "month": {"type": "integer"},
                "month_name": {"type": "string"},
                "total_amount": {"type": "number"},
                "transaction_count": {"type": "integer"}
            }
        },
        "models.DailyCount": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "count": {"type": "integer"}
            }
        },
        "models.UserStats": {
            "type": "object",
            "properties": {
                "total_users": {"type": "integer"},
                "new_today": {"type": "integer"},
                "new_this_week": {"type": "integer"},
                "new_this_month": {"type": "integer"},
                "active_users": {"type": "integer"},
                "daily_signups": {"type": "array", "items": {"$ref": "#/definitions/models.DailyCount"}}
            }
        },
        "models.CategoryUsage": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "usage_count": {"type": "integer"},
                "total_amount": {"type": "number"}
            }
        },
        "models.ExpenseStats": {
            "type": "object",
            "properties": {
                "total_expenses": {"type": "integer"},
                "total_amount": {"type": "number"},
                "today_expenses": {"type": "integer"},
                "popular_categories": {"type": "array", "items": {"$ref": "#/definitions/models.CategoryUsage"}},
                "daily_totals": {"type": "array", "items": {"$ref": "#/definitions/models.DailyTotal"}}
            }
        },
        "models.UserActivity": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "created_at": {"type": "string"},
                "expense_count": {"type": "integer"},
                "total_spent": {"type": "number"},
                "last_expense_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "AdminToken": {"type": "apiKey", "name": "X-Admin-Token", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Expense Tracker API",
	Description:      "Personal expense ledger with JWT auth, password reset, summaries and admin analytics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
