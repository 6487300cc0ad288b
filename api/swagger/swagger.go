package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Scheduler API",
        "description": "Course section timetabling, weekly schedules and calendar export.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Scheduling", "description": "Timetable generation runs"},
        {"name": "Schedule", "description": "Weekly schedules and calendar exports"}
    ],
    "paths": {
        "/scheduling/runs": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Generate and persist a timetable",
                "description": "Runs synchronously unless async=true, in which case a run id is returned with 202.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "async", "in": "query", "type": "boolean"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "Run completed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Run queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "UNSCHEDULABLE or SEARCH_BUDGET_EXHAUSTED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scheduling/runs/{id}": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "Get an async scheduling run",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scheduling/preview": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Generate a timetable without saving it",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scheduling/default-timeslots": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "List the default weekly time grid",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/me": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Get the caller's weekly schedule",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/me/ical": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Download the caller's schedule as iCalendar",
                "produces": ["text/calendar"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "start", "in": "query", "type": "string", "format": "date"},
                    {"name": "end", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "iCalendar document"}
                }
            }
        },
        "/schedule/me/pdf": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Download the caller's weekly schedule as PDF or CSV",
                "produces": ["application/pdf", "text/csv"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"]}
                ],
                "responses": {
                    "200": {"description": "Document"}
                }
            }
        },
        "/schedule/feed-url": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Issue a subscribable calendar URL for the caller",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/users/{id}": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Get a user's weekly schedule",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "role", "in": "query", "required": true, "type": "string", "enum": ["student", "faculty"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar/{token}": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Calendar subscription feed",
                "produces": ["text/calendar"],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "iCalendar document"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "TimeSlot": {
            "type": "object",
            "properties": {
                "dayOfWeek": {"type": "string", "example": "MONDAY"},
                "startTime": {"type": "string", "example": "09:00"},
                "endTime": {"type": "string", "example": "10:30"}
            }
        },
        "InstructorPreference": {
            "type": "object",
            "properties": {
                "instructorId": {"type": "string"},
                "preferredDays": {"type": "array", "items": {"type": "string"}},
                "preferredSlots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}},
                "avoidSlots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}},
                "maxMeetingsPerDay": {"type": "integer"}
            }
        },
        "GenerateScheduleRequest": {
            "type": "object",
            "properties": {
                "termId": {"type": "string"},
                "sectionIds": {"type": "array", "items": {"type": "string"}},
                "classroomIds": {"type": "array", "items": {"type": "string"}},
                "building": {"type": "string"},
                "timeSlots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlot"}},
                "hardConstraints": {"type": "array", "items": {"type": "string", "enum": ["noInstructorDoubleBooking", "noClassroomDoubleBooking", "noStudentScheduleConflict", "classroomCapacity", "classroomFeatures"]}},
                "softConstraints": {"type": "array", "items": {"type": "string", "enum": ["respectInstructorPreferences", "minimizeDailyGaps", "distributeEvenly", "preferMorningForRequired"]}},
                "instructorPreferences": {"type": "array", "items": {"$ref": "#/definitions/InstructorPreference"}},
                "optimizer": {"type": "string", "enum": ["identity", "local_search"]},
                "maxNodes": {"type": "integer"},
                "timeoutSeconds": {"type": "integer"}
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
