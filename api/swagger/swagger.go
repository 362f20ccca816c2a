package swagger

import "github.com/swaggo/swag"

// docTemplate documents the versioned API. Operational routes (/health, /ready, /metrics) live outside
// the base path and are not listed.
const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Enrollment API",
        "description": "Student enrollment confirmation and panel service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {
            "name": "Enrollments",
            "description": "Enrollment confirmation"
        },
        {
            "name": "Panel",
            "description": "Read-only student dashboard"
        },
        {
            "name": "Periods",
            "description": "Per-period operational reports"
        },
        {
            "name": "Operations",
            "description": "Health and metrics"
        }
    ],
    "paths": {
        "/enrollments/confirm": {
            "post": {
                "tags": [
                    "Enrollments"
                ],
                "summary": "Confirm enrollment",
                "description": "Replaces the student's selection for the active period with the given offerings, all or nothing.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ConfirmEnrollmentRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Confirmed",
                        "schema": {
                            "$ref": "#/definitions/ConfirmationEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid request",
                        "schema": {
                            "$ref": "#/definitions/ConfirmationEnvelope"
                        }
                    },
                    "403": {
                        "description": "Student blocked",
                        "schema": {
                            "$ref": "#/definitions/ConfirmationEnvelope"
                        }
                    },
                    "404": {
                        "description": "Student, period or offerings not found",
                        "schema": {
                            "$ref": "#/definitions/ConfirmationEnvelope"
                        }
                    },
                    "409": {
                        "description": "No seats available",
                        "schema": {
                            "$ref": "#/definitions/ConfirmationEnvelope"
                        }
                    },
                    "422": {
                        "description": "Policy violation",
                        "schema": {
                            "$ref": "#/definitions/ConfirmationEnvelope"
                        }
                    },
                    "500": {
                        "description": "Unexpected failure",
                        "schema": {
                            "$ref": "#/definitions/ConfirmationEnvelope"
                        }
                    }
                }
            }
        },
        "/students/{registration}/enrollment-dates": {
            "get": {
                "tags": [
                    "Panel"
                ],
                "summary": "Enrollment window of the active period",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "registration",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "career",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Career code, defaults to the first active career"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/Envelope"
                        }
                    },
                    "404": {
                        "description": "Student or career not found",
                        "schema": {
                            "$ref": "#/definitions/Envelope"
                        }
                    }
                }
            }
        },
        "/students/{registration}/holds": {
            "get": {
                "tags": [
                    "Panel"
                ],
                "summary": "Active holds of the student career",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "registration",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "career",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Career code, defaults to the first active career"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/Envelope"
                        }
                    },
                    "404": {
                        "description": "Student or career not found",
                        "schema": {
                            "$ref": "#/definitions/Envelope"
                        }
                    }
                }
            }
        },
        "/students/{registration}/available-courses": {
            "get": {
                "tags": [
                    "Panel"
                ],
                "summary": "Offerings of the active period for the student's semester",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "registration",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "career",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Career code, defaults to the first active career"
                    },
                    {
                        "name": "onlyWithSeats",
                        "in": "query",
                        "required": false,
                        "type": "boolean"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/Envelope"
                        }
                    },
                    "404": {
                        "description": "Student or career not found",
                        "schema": {
                            "$ref": "#/definitions/Envelope"
                        }
                    }
                }
            }
        },
        "/students/{registration}/enabled-period": {
            "get": {
                "tags": [
                    "Panel"
                ],
                "summary": "Active period and whether enrollment is open",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "registration",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "career",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Career code, defaults to the first active career"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/Envelope"
                        }
                    },
                    "404": {
                        "description": "Student or career not found",
                        "schema": {
                            "$ref": "#/definitions/Envelope"
                        }
                    }
                }
            }
        },
        "/students/{registration}/enrollment": {
            "get": {
                "tags": [
                    "Panel"
                ],
                "summary": "Current enrollment of the student career",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "registration",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "career",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Career code, defaults to the first active career"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/Envelope"
                        }
                    },
                    "404": {
                        "description": "Student or career not found",
                        "schema": {
                            "$ref": "#/definitions/Envelope"
                        }
                    }
                }
            }
        },
        "/students/{registration}/panel": {
            "get": {
                "tags": [
                    "Panel"
                ],
                "summary": "Full student panel",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "registration",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "career",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Career code, defaults to the first active career"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/Envelope"
                        }
                    },
                    "404": {
                        "description": "Student or career not found",
                        "schema": {
                            "$ref": "#/definitions/Envelope"
                        }
                    }
                }
            }
        },
        "/students/{registration}/enrollment/slip": {
            "get": {
                "tags": [
                    "Panel"
                ],
                "summary": "Download the enrollment slip",
                "produces": [
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "registration",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "career",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "PDF slip",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "404": {
                        "description": "No confirmed enrollment",
                        "schema": {
                            "$ref": "#/definitions/Envelope"
                        }
                    }
                }
            }
        },
        "/periods/{code}/offerings/export": {
            "get": {
                "tags": [
                    "Periods"
                ],
                "summary": "Export offering occupancy as CSV",
                "produces": [
                    "text/csv"
                ],
                "parameters": [
                    {
                        "name": "code",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Period code, URL encoded, or 'active'"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "CSV file",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "404": {
                        "description": "Period not found",
                        "schema": {
                            "$ref": "#/definitions/Envelope"
                        }
                    }
                }
            }
        },
        "/periods/{code}/seat-audit": {
            "get": {
                "tags": [
                    "Periods"
                ],
                "summary": "Offerings whose seat counter disagrees with their selections",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "code",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Period code, URL encoded, or 'active'"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/Envelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "ConfirmEnrollmentRequest": {
            "type": "object",
            "required": [
                "registration",
                "careerCode",
                "offeringIds"
            ],
            "properties": {
                "registration": {
                    "type": "string",
                    "example": "2150826"
                },
                "careerCode": {
                    "type": "string",
                    "example": "187-3"
                },
                "offeringIds": {
                    "type": "array",
                    "items": {
                        "type": "integer",
                        "format": "int64"
                    },
                    "example": [
                        101,
                        102
                    ]
                }
            }
        },
        "ConfirmationResult": {
            "type": "object",
            "properties": {
                "ok": {
                    "type": "boolean"
                },
                "message": {
                    "type": "string"
                },
                "enrolledCount": {
                    "type": "integer"
                },
                "code": {
                    "type": "string"
                },
                "enrollmentId": {
                    "type": "string"
                },
                "receiptNumber": {
                    "type": "string"
                }
            }
        },
        "ConfirmationEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "$ref": "#/definitions/ConfirmationResult"
                },
                "meta": {
                    "type": "object"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "kind": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
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
