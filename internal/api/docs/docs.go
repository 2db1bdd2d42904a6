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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/maturity-questions": {
            "get": {
                "produces": ["application/json"],
                "summary": "List catalog questions for a filter",
                "parameters": [
                    {"type": "integer", "name": "axis_id", "in": "query"},
                    {"type": "integer", "name": "industry_id", "in": "query"},
                    {"type": "string", "name": "category", "in": "query"},
                    {"enum": ["multiple_choice", "free_text", "rating"], "type": "string", "name": "question_type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/QuestionListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/maturity-questions/chat": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Submit one survey chat turn",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ChatResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/maturity-questions/sessions/{id}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Get survey progress",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SurveyProgress"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/maturity-questions/sessions/{id}/result": {
            "get": {
                "produces": ["text/markdown", "application/json", "application/pdf", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"],
                "summary": "Export survey answers",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"enum": ["markdown", "json", "docx", "pdf"], "type": "string", "default": "markdown", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ChatRequest": {
            "type": "object",
            "required": ["input_text", "axis_id"],
            "properties": {
                "session_id": {"type": "string"},
                "input_text": {"type": "string"},
                "axis_id": {"type": "integer"},
                "industry_id": {"type": "integer"},
                "category": {"type": "string"},
                "question_type": {"type": "string"}
            }
        },
        "ConversationMessage": {
            "type": "object",
            "properties": {
                "role": {"type": "string", "enum": ["user", "assistant", "system"]},
                "content": {"type": "string"}
            }
        },
        "ChatResponse": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "assistant_message": {"$ref": "#/definitions/ConversationMessage"},
                "timestamp": {"type": "string", "format": "date-time"},
                "status": {"type": "string", "enum": ["IN_PROGRESS", "COMPLETED"]}
            }
        },
        "QuestionOption": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "text": {"type": "string"},
                "score": {"type": "number"}
            }
        },
        "Question": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "text": {"type": "string"},
                "category": {"type": "string"},
                "options": {"type": "array", "items": {"$ref": "#/definitions/QuestionOption"}}
            }
        },
        "QuestionListResponse": {
            "type": "object",
            "properties": {
                "questions": {"type": "array", "items": {"$ref": "#/definitions/Question"}},
                "total": {"type": "integer"}
            }
        },
        "SurveyProgress": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "status": {"type": "string"},
                "current_question_idx": {"type": "integer"},
                "total_questions": {"type": "integer"},
                "answered_questions": {"type": "integer"},
                "responses": {"type": "object", "additionalProperties": {"type": "string"}},
                "message_count": {"type": "integer"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"}
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
	Title:            "Maturity survey API",
	Description:      "Conversational maturity assessment backed by a chat-completion model.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
