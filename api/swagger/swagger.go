package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMS Results API",
        "description": "Assessment scoring and report-card approval engine",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Results", "description": "Score entry, cohort results and student records"},
        {"name": "Workflow", "description": "Report-card submission and approval"},
        {"name": "Summaries", "description": "Cumulative session summaries"},
        {"name": "GradeScales", "description": "Grading threshold configuration"},
        {"name": "Exports", "description": "Broadsheet and report-card exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/results/scores": {
            "post": {
                "tags": ["Results"],
                "summary": "Enter one student's component scores",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnterScoresRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Results locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/results/scores/bulk": {
            "post": {
                "tags": ["Results"],
                "summary": "Enter scores for several students of one cohort",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkEnterScoresRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Results locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/results/recompute": {
            "post": {
                "tags": ["Results"],
                "summary": "Recompute totals, grades and positions for a cohort",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CohortFilter"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/results/cohort": {
            "get": {
                "tags": ["Results"],
                "summary": "Ranked assessments for a class/subject/term/session",
                "parameters": [
                    {"name": "classId", "in": "query", "required": true, "type": "string"},
                    {"name": "subject", "in": "query", "required": true, "type": "string"},
                    {"name": "term", "in": "query", "required": true, "type": "string"},
                    {"name": "session", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/results/students/{studentId}": {
            "get": {
                "tags": ["Results"],
                "summary": "One student's marks record for a term",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "term", "in": "query", "required": true, "type": "string"},
                    {"name": "session", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No results", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/results/students/{studentId}/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export one student's report card",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "term", "in": "query", "required": true, "type": "string"},
                    {"name": "session", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/results/summary/{studentId}": {
            "get": {
                "tags": ["Summaries"],
                "summary": "Cumulative standing across approved results in a session",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "session", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/results/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export the ranked cohort as CSV or PDF",
                "parameters": [
                    {"name": "classId", "in": "query", "required": true, "type": "string"},
                    {"name": "subject", "in": "query", "required": true, "type": "string"},
                    {"name": "term", "in": "query", "required": true, "type": "string"},
                    {"name": "session", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/results/export/async": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a broadsheet export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AsyncExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/report-cards": {
            "get": {
                "tags": ["Workflow"],
                "summary": "List workflow records",
                "parameters": [
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "term", "in": "query", "type": "string"},
                    {"name": "session", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/report-cards/status": {
            "get": {
                "tags": ["Workflow"],
                "summary": "Aggregate status for a workflow key",
                "parameters": [
                    {"name": "teacherId", "in": "query", "required": true, "type": "string"},
                    {"name": "classId", "in": "query", "required": true, "type": "string"},
                    {"name": "subject", "in": "query", "required": true, "type": "string"},
                    {"name": "term", "in": "query", "required": true, "type": "string"},
                    {"name": "session", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/report-cards/submit": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Submit a batch of report cards for approval",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitReportCardsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Transition rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/report-cards/approve": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Approve a pending submission (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/WorkflowKeyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Transition rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/report-cards/revoke": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Revoke a pending submission with a message (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RevokeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Transition rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/report-cards/cancel": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Withdraw a pending submission (submitter)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/WorkflowKeyRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Transition rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/report-cards/reset": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Reset a submission to draft regardless of status (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/WorkflowKeyRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "No submission", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/grade-scales": {
            "get": {
                "tags": ["GradeScales"],
                "summary": "Active grade scale",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["GradeScales"],
                "summary": "Replace the grade scale (admin)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeScale"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid scale", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a generated export by signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RawComponentScores": {
            "type": "object",
            "properties": {
                "first_test": {"type": "number"},
                "second_test": {"type": "number"},
                "assignment": {"type": "number"},
                "exam": {"type": "number"}
            }
        },
        "EnterScoresRequest": {
            "type": "object",
            "properties": {
                "teacher_id": {"type": "string"},
                "student_id": {"type": "string"},
                "class_id": {"type": "string"},
                "subject": {"type": "string"},
                "term": {"type": "string"},
                "session": {"type": "string"},
                "scores": {"$ref": "#/definitions/RawComponentScores"}
            },
            "required": ["student_id", "class_id", "subject", "term", "session"]
        },
        "BulkScoreItem": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "scores": {"$ref": "#/definitions/RawComponentScores"}
            },
            "required": ["student_id"]
        },
        "BulkEnterScoresRequest": {
            "type": "object",
            "properties": {
                "teacher_id": {"type": "string"},
                "class_id": {"type": "string"},
                "subject": {"type": "string"},
                "term": {"type": "string"},
                "session": {"type": "string"},
                "items": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/BulkScoreItem"}
                }
            },
            "required": ["class_id", "subject", "term", "session", "items"]
        },
        "WorkflowKeyRequest": {
            "type": "object",
            "properties": {
                "teacher_id": {"type": "string"},
                "class_id": {"type": "string"},
                "subject": {"type": "string"},
                "term": {"type": "string"},
                "session": {"type": "string"}
            },
            "required": ["teacher_id", "class_id", "subject", "term", "session"]
        },
        "RevokeRequest": {
            "type": "object",
            "properties": {
                "teacher_id": {"type": "string"},
                "class_id": {"type": "string"},
                "subject": {"type": "string"},
                "term": {"type": "string"},
                "session": {"type": "string"},
                "message": {"type": "string"}
            },
            "required": ["teacher_id", "class_id", "subject", "term", "session", "message"]
        },
        "SubmitReportCardsRequest": {
            "type": "object",
            "properties": {
                "teacher_id": {"type": "string"},
                "class_id": {"type": "string"},
                "subject": {"type": "string"},
                "term": {"type": "string"},
                "session": {"type": "string"},
                "student_ids": {
                    "type": "array",
                    "items": {"type": "string"}
                }
            },
            "required": ["class_id", "subject", "term", "session", "student_ids"]
        },
        "CohortFilter": {
            "type": "object",
            "properties": {
                "class_id": {"type": "string"},
                "subject": {"type": "string"},
                "term": {"type": "string"},
                "session": {"type": "string"}
            },
            "required": ["class_id", "subject", "term", "session"]
        },
        "AsyncExportRequest": {
            "type": "object",
            "properties": {
                "class_id": {"type": "string"},
                "subject": {"type": "string"},
                "term": {"type": "string"},
                "session": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["class_id", "subject", "term", "session"]
        },
        "GradeBand": {
            "type": "object",
            "properties": {
                "min_percent": {"type": "integer"},
                "grade": {"type": "string"},
                "remark": {"type": "string"}
            },
            "required": ["min_percent", "grade"]
        },
        "GradeScale": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "bands": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/GradeBand"}
                }
            },
            "required": ["bands"]
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
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
