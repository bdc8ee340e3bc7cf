package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "GWD Records API",
        "description": "Groundwater department file, site and supervisor update records.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Files", "description": "File records and their sites"},
        {"name": "PendingUpdates", "description": "Supervisor proposals and editor review"},
        {"name": "Users", "description": "Staff registry"},
        {"name": "Dashboard", "description": "Landing page summary"},
        {"name": "Exports", "description": "Spreadsheet exports"}
    ],
    "paths": {
        "/files": {
            "get": {
                "tags": ["Files"],
                "summary": "List files",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Files"],
                "summary": "Create file",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FileEntryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "File number already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/search": {
            "get": {
                "tags": ["Files"],
                "summary": "Full-text file search",
                "parameters": [
                    {"name": "q", "in": "query", "type": "string", "required": true},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/files/{fileNo}": {
            "get": {
                "tags": ["Files"],
                "summary": "Get file",
                "parameters": [{"name": "fileNo", "in": "path", "type": "string", "required": true, "description": "URL-escaped file number"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Files"],
                "summary": "Replace file",
                "parameters": [
                    {"name": "fileNo", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FileEntryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Concurrent edit", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/{fileNo}/sites/{siteId}/supervisor": {
            "put": {
                "tags": ["Files"],
                "summary": "Assign or clear a site supervisor",
                "parameters": [
                    {"name": "fileNo", "in": "path", "type": "string", "required": true},
                    {"name": "siteId", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignSupervisorRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sites/assigned": {
            "get": {
                "tags": ["Files"],
                "summary": "Sites assigned to the calling supervisor",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/pending-updates": {
            "get": {
                "tags": ["PendingUpdates"],
                "summary": "List pending updates",
                "parameters": [
                    {"name": "fileNo", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated statuses"},
                    {"name": "mine", "in": "query", "type": "boolean"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["PendingUpdates"],
                "summary": "Submit proposed site changes",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitPendingUpdateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the site supervisor", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Stale site version or duplicate pending update", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pending-updates/stream": {
            "get": {
                "tags": ["PendingUpdates"],
                "summary": "Live pending update list (server-sent events)",
                "produces": ["text/event-stream"],
                "parameters": [
                    {"name": "fileNo", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "mine", "in": "query", "type": "boolean"},
                    {"name": "access_token", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "Event stream"}}
            }
        },
        "/pending-updates/actionable": {
            "get": {
                "tags": ["PendingUpdates"],
                "summary": "Updates awaiting review",
                "parameters": [{"name": "fileNo", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/pending-updates/reassign": {
            "get": {
                "tags": ["PendingUpdates"],
                "summary": "Orphaned updates waiting for a new site supervisor",
                "parameters": [{"name": "fileNo", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/pending-updates/orphans/sweep": {
            "post": {
                "tags": ["PendingUpdates"],
                "summary": "Move orphaned pending updates to supervisor-unassigned",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/OrphanSweepRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/pending-updates/{id}": {
            "get": {
                "tags": ["PendingUpdates"],
                "summary": "Get pending update",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/pending-updates/{id}/diff": {
            "get": {
                "tags": ["PendingUpdates"],
                "summary": "Field-level review",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "File or site missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "NO_CHANGES", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pending-updates/{id}/approve": {
            "post": {
                "tags": ["PendingUpdates"],
                "summary": "Approve and merge",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not pending, site changed since submission, or submitter no longer assigned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pending-updates/{id}/reject": {
            "post": {
                "tags": ["PendingUpdates"],
                "summary": "Reject with notes",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectPendingUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List staff",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Users"],
                "summary": "Register staff member",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get staff member",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/users/{id}/role": {
            "put": {
                "tags": ["Users"],
                "summary": "Change role",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangeRoleRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Department dashboard summary",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Generate an export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a generated export",
                "security": [],
                "produces": ["application/octet-stream"],
                "parameters": [{"name": "token", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "File"},
                    "404": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SiteDetail": {
            "type": "object",
            "required": ["nameOfSite", "purpose", "workStatus"],
            "properties": {
                "id": {"type": "string"},
                "nameOfSite": {"type": "string"},
                "purpose": {"type": "string"},
                "workStatus": {"type": "string"},
                "supervisorUid": {"type": "string"},
                "supervisorName": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "estimateAmount": {"type": "string"},
                "tsAmount": {"type": "string"},
                "tenderNo": {"type": "string"},
                "contractorName": {"type": "string"},
                "workOrderDate": {"type": "string", "format": "date-time"},
                "totalExpenditure": {"type": "string"},
                "dateOfCompletion": {"type": "string", "format": "date-time"},
                "workRemarks": {"type": "string"},
                "version": {"type": "integer"}
            },
            "required": ["nameOfSite"]
        },
        "FileEntryRequest": {
            "type": "object",
            "properties": {
                "fileNo": {"type": "string"},
                "applicantName": {"type": "string"},
                "phoneNo": {"type": "string"},
                "applicationType": {"type": "string"},
                "fileStatus": {"type": "string"},
                "remarks": {"type": "string"},
                "remittanceDetails": {"type": "array", "items": {"type": "object"}},
                "paymentDetails": {"type": "array", "items": {"type": "object"}},
                "siteDetails": {"type": "array", "items": {"$ref": "#/definitions/SiteDetail"}},
                "updatedAt": {"type": "string", "format": "date-time"}
            },
            "required": ["fileNo", "applicantName"]
        },
        "AssignSupervisorRequest": {
            "type": "object",
            "properties": {"supervisorUid": {"type": "string"}}
        },
        "SubmitPendingUpdateRequest": {
            "type": "object",
            "properties": {
                "fileNo": {"type": "string"},
                "updatedSiteDetails": {"type": "array", "items": {"$ref": "#/definitions/SiteDetail"}}
            },
            "required": ["fileNo", "updatedSiteDetails"]
        },
        "RejectPendingUpdateRequest": {
            "type": "object",
            "properties": {"notes": {"type": "string"}},
            "required": ["notes"]
        },
        "OrphanSweepRequest": {
            "type": "object",
            "properties": {
                "submittedBy": {"type": "string"},
                "fileNo": {"type": "string"}
            }
        },
        "CreateUserRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["EDITOR", "SUPERVISOR", "VIEWER"]}
            },
            "required": ["id", "email", "full_name", "role"]
        },
        "ChangeRoleRequest": {
            "type": "object",
            "properties": {"role": {"type": "string", "enum": ["EDITOR", "SUPERVISOR", "VIEWER"]}},
            "required": ["role"]
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "dataset": {"type": "string", "enum": ["sites", "files", "pending-updates"]},
                "format": {"type": "string", "enum": ["xlsx", "csv"]},
                "fileNo": {"type": "string"},
                "status": {"type": "string"}
            },
            "required": ["dataset", "format"]
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
