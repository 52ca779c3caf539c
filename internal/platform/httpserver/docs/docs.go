// Package docs registers the OpenAPI document served under /swagger/.
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
        "/t/{slug}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Render a tenant route",
                "parameters": [
                    {"type": "string", "description": "Tenant slug", "name": "slug", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.ViewResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}
                }
            }
        },
        "/views": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Render a route",
                "parameters": [
                    {"type": "string", "description": "Route path", "name": "route", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.ViewResponse"}}
                }
            }
        },
        "/session": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Current session snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.SessionResponse"}}
                }
            }
        },
        "/session/hydrate": {
            "post": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Load the entry profile into the session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.HydrateResponse"}}
                }
            }
        },
        "/session/tenants/refresh": {
            "post": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Refresh available tenants",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.RefreshTenantsResponse"}}
                }
            }
        },
        "/session/logout": {
            "post": {
                "tags": ["session"],
                "summary": "Clear the session",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/session/denials": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["denials"],
                "summary": "Report a failed data fetch",
                "parameters": [
                    {"description": "Failed fetch", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.ReportDenialRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.ReportDenialResponse"}}
                }
            }
        },
        "/support/copy-message": {
            "post": {
                "produces": ["application/json"],
                "tags": ["denials"],
                "summary": "Support message for the presented denial",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.CopyResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}
                }
            }
        },
        "/support/copy-request-id": {
            "post": {
                "produces": ["application/json"],
                "tags": ["denials"],
                "summary": "Request id of the presented denial",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.CopyResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "httptransport.ActionDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "label": {"type": "string"},
                "href": {"type": "string"}
            }
        },
        "httptransport.DenialScreenDTO": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "reason": {"type": "string"},
                "source": {"type": "string"},
                "path": {"type": "string"},
                "request_id": {"type": "string"},
                "service": {"type": "string"},
                "tenant": {"type": "string"},
                "required_permission": {"type": "string"}
            }
        },
        "httptransport.ViewResponse": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "location": {"type": "string"},
                "message": {"type": "string"},
                "slug": {"type": "string"},
                "actions": {"type": "array", "items": {"$ref": "#/definitions/httptransport.ActionDTO"}},
                "denial": {"$ref": "#/definitions/httptransport.DenialScreenDTO"}
            }
        },
        "httptransport.ActiveTenantDTO": {
            "type": "object",
            "properties": {
                "tenant_id": {"type": "string"},
                "slug": {"type": "string"},
                "display_name": {"type": "string"},
                "base_role": {"type": "string"}
            }
        },
        "httptransport.TenantSummaryDTO": {
            "type": "object",
            "properties": {
                "tenant_id": {"type": "string"},
                "slug": {"type": "string"},
                "display_name": {"type": "string"},
                "status": {"type": "string"},
                "base_role": {"type": "string"}
            }
        },
        "httptransport.SessionResponse": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "user_id": {"type": "string"},
                "state": {"type": "string"},
                "error_message": {"type": "string"},
                "active_tenant": {"$ref": "#/definitions/httptransport.ActiveTenantDTO"},
                "available_tenants": {"type": "array", "items": {"$ref": "#/definitions/httptransport.TenantSummaryDTO"}}
            }
        },
        "httptransport.RefreshTenantsResponse": {
            "type": "object",
            "properties": {
                "tenants": {"type": "array", "items": {"$ref": "#/definitions/httptransport.TenantSummaryDTO"}}
            }
        },
        "httptransport.UserDTO": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "email": {"type": "string"},
                "display_name": {"type": "string"},
                "capabilities": {"type": "array", "items": {"type": "string"}}
            }
        },
        "httptransport.PendingApplicationDTO": {
            "type": "object",
            "properties": {
                "tenant_slug": {"type": "string"},
                "display_name": {"type": "string"},
                "submitted_at": {"type": "string", "format": "date-time"}
            }
        },
        "httptransport.HydrateResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/httptransport.UserDTO"},
                "last_tenant_slug": {"type": "string"},
                "pending_applications": {"type": "array", "items": {"$ref": "#/definitions/httptransport.PendingApplicationDTO"}},
                "session": {"$ref": "#/definitions/httptransport.SessionResponse"}
            }
        },
        "httptransport.ReportDenialRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "integer"},
                "code": {"type": "string"},
                "kind": {"type": "string"},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "details": {"type": "object"},
                "route": {"type": "string"}
            }
        },
        "httptransport.ReportDenialResponse": {
            "type": "object",
            "properties": {
                "denied": {"type": "boolean"},
                "presented": {"type": "boolean"},
                "denial": {"$ref": "#/definitions/httptransport.DenialScreenDTO"}
            }
        },
        "httptransport.CopyResponse": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "copied": {"type": "boolean"}
            }
        },
        "httptransport.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
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
	Title:            "tenantgate BFF API",
	Description:      "Tenant session gate and access-denial surface for the web shell.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
