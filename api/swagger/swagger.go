package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "School timetable management and constraint solving service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login and session management"},
        {"name": "Subjects", "description": "Curriculum subjects"},
        {"name": "Teachers", "description": "Teacher roster"},
        {"name": "Classes", "description": "Class groups"},
        {"name": "Rooms", "description": "Physical rooms"},
        {"name": "Allocations", "description": "Teacher per class-subject pair"},
        {"name": "Settings", "description": "School settings and slot grid"},
        {"name": "Timetable", "description": "Solver and timetable edits"},
        {"name": "Exports", "description": "Rendered week views"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects",
                "parameters": [
                    {"name": "difficulty", "in": "query", "type": "string"},
                    {"name": "room_type", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Create subject",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate code"}
                }
            }
        },
        "/subjects/{id}": {
            "get": {
                "tags": ["Subjects"],
                "summary": "Get subject",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Subjects"],
                "summary": "Update subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubjectRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Subjects"],
                "summary": "Delete subject",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "409": {"description": "Still allocated"}}
            }
        },
        "/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Get school settings",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Update settings and regenerate time slots",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SettingsRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/settings/time-slots": {
            "get": {
                "tags": ["Settings"],
                "summary": "List generated time slots",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/timetable/solve": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate a timetable",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/SolveRequest"}}
                ],
                "responses": {
                    "200": {"description": "Solved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Job accepted"},
                    "409": {"description": "Solve already running"},
                    "422": {"description": "Unsolvable configuration with conflict reports"}
                }
            }
        },
        "/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List timetable entries",
                "parameters": [
                    {"name": "class_id", "in": "query", "type": "string"},
                    {"name": "teacher_id", "in": "query", "type": "string"},
                    {"name": "room_id", "in": "query", "type": "string"},
                    {"name": "day", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/timetable/conflicts": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List conflict reports from the latest failed solve",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/timetable/jobs/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get solve job status",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Unknown job"}}
            }
        },
        "/timetable/entries/{id}/validate-move": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Validate a manual edit without applying it",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveRequest"}}
                ],
                "responses": {"200": {"description": "Verdict with all broken rules"}}
            }
        },
        "/timetable/entries/{id}/move": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Move a timetable entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveRequest"}}
                ],
                "responses": {
                    "200": {"description": "Applied"},
                    "422": {"description": "Rejected with violations"}
                }
            }
        },
        "/exports/classes/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export the weekly timetable of a class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"]}
                ],
                "responses": {"200": {"description": "Rendered document"}}
            }
        },
        "/exports/teachers/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export the weekly timetable of a teacher",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"]}
                ],
                "responses": {"200": {"description": "Rendered document"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "SubjectRequest": {
            "type": "object",
            "required": ["code", "name", "weekly_periods"],
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "weekly_periods": {"type": "integer"},
                "difficulty": {"type": "string", "enum": ["easy", "fair", "difficult"]},
                "requires_room_type": {"type": "string"},
                "requires_consecutive": {"type": "boolean"}
            }
        },
        "SettingsRequest": {
            "type": "object",
            "required": ["days_per_week", "periods_before_break", "periods_after_break"],
            "properties": {
                "days_per_week": {"type": "integer"},
                "periods_before_break": {"type": "integer"},
                "periods_after_break": {"type": "integer"},
                "lesson_start_time": {"type": "string"},
                "lesson_duration_min": {"type": "integer"},
                "break_duration_min": {"type": "integer"}
            }
        },
        "SolveRequest": {
            "type": "object",
            "properties": {
                "time_limit_seconds": {"type": "integer"},
                "weights": {
                    "type": "object",
                    "properties": {
                        "idle_gap": {"type": "number"},
                        "early_difficult": {"type": "number"},
                        "workload_balance": {"type": "number"}
                    }
                },
                "allow_odd_consecutive": {"type": "boolean"},
                "async": {"type": "boolean"}
            }
        },
        "MoveRequest": {
            "type": "object",
            "required": ["day_index", "period_index"],
            "properties": {
                "day_index": {"type": "integer"},
                "period_index": {"type": "integer"},
                "room_id": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
