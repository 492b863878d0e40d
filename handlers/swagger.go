package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the user-sync service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Header("Content-Type", "application/json; charset=utf-8")
		c.String(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>imaginify user-sync - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "imaginify-user-sync", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "WebhookResponse": {
        "type": "object",
        "properties": {
          "success": { "type": "boolean" },
          "message": { "type": "string" },
          "user": { "$ref": "#/components/schemas/User" }
        }
      },
      "User": {
        "type": "object",
        "properties": {
          "_id": { "type": "string" }, "externalId": { "type": "string" }, "email": { "type": "string" },
          "username": { "type": "string" }, "firstName": { "type": "string" }, "lastName": { "type": "string" },
          "photo": { "type": "string" }, "planId": { "type": "integer" }, "creditBalance": { "type": "integer" },
          "createdAt": { "type": "string", "format": "date-time" }, "updatedAt": { "type": "string", "format": "date-time" }
        }
      }
    }
  },
  "paths": {
    "/api/webhooks/clerk": {
      "post": {
        "summary": "Receive a Svix-signed user lifecycle event (user.created, user.updated, user.deleted)",
        "parameters": [
          { "name": "svix-id", "in": "header", "required": true, "schema": { "type": "string" } },
          { "name": "svix-timestamp", "in": "header", "required": true, "schema": { "type": "string" } },
          { "name": "svix-signature", "in": "header", "required": true, "schema": { "type": "string" } }
        ],
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"type":{"type":"string"},"data":{"type":"object"}}}}}},
        "responses": {
          "200": { "description": "event applied or ignored", "content": { "application/json": { "schema": { "$ref": "#/components/schemas/WebhookResponse" } } } },
          "400": { "description": "missing headers, bad signature or invalid payload" },
          "413": { "description": "body too large" },
          "500": { "description": "configuration or database error" }
        }
      }
    },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "exposition format" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
