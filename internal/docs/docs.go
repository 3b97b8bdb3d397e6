// Package docs serves the API's OpenAPI document and a Swagger UI page.
package docs

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPI []byte

const uiPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Cinema screenings API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function () {
      SwaggerUIBundle({ url: "/docs/openapi.json", dom_id: "#swagger-ui" });
    };
  </script>
</body>
</html>
`

// YAML returns the OpenAPI document as written.
func YAML() []byte { return openAPI }

var toJSON = sync.OnceValues(func() ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(openAPI, &doc); err != nil {
		return nil, fmt.Errorf("parse openapi.yaml: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode openapi.json: %w", err)
	}
	return out, nil
})

// JSON returns the OpenAPI document converted to JSON.
func JSON() ([]byte, error) { return toJSON() }

// Register mounts the document under /docs:
//
//	GET /docs               Swagger UI
//	GET /docs/openapi.yaml  the document as written
//	GET /docs/openapi.json  the same document as JSON
func Register(e *echo.Echo) {
	g := e.Group("/docs")
	g.GET("", func(c echo.Context) error {
		return c.HTML(http.StatusOK, uiPage)
	})
	g.GET("/openapi.yaml", func(c echo.Context) error {
		return c.Blob(http.StatusOK, "application/yaml", openAPI)
	})
	g.GET("/openapi.json", func(c echo.Context) error {
		b, err := JSON()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSONBlob(http.StatusOK, b)
	})
}
