package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v2"
)

// setupDocsRoutes wires the API documentation endpoints.
func (s *Server) setupDocsRoutes(r *mux.Router) {
	r.HandleFunc("/docs/openapi.yaml", s.handleOpenAPISpec).Methods("GET")
	r.HandleFunc("/docs/openapi.json", s.handleOpenAPISpec).Methods("GET")
	r.HandleFunc("/docs", s.handleDocsIndex).Methods("GET")
	r.HandleFunc("/docs/", s.handleDocsIndex).Methods("GET")
}

// handleOpenAPISpec serves the OpenAPI specification, converting the YAML
// source to JSON when the .json path is requested.
func (s *Server) handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	specPath := filepath.Join("docs", "openapi.yaml")

	if !strings.HasSuffix(r.URL.Path, ".json") {
		w.Header().Set("Content-Type", "text/yaml")
		http.ServeFile(w, r, specPath)
		return
	}

	yamlData, err := os.ReadFile(specPath)
	if err != nil {
		s.writeErrorResponse(w, http.StatusNotFound, "OpenAPI spec not found")
		return
	}

	var spec interface{}
	if err := yaml.Unmarshal(yamlData, &spec); err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "Error parsing OpenAPI spec")
		return
	}

	jsonData, err := json.MarshalIndent(stringifyKeys(spec), "", "  ")
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "Error converting OpenAPI spec")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(jsonData)
}

// stringifyKeys rewrites the interface-keyed maps yaml.v2 produces into
// string-keyed ones json.Marshal accepts.
func stringifyKeys(value interface{}) interface{} {
	switch typed := value.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(typed))
		for key, val := range typed {
			out[fmt.Sprintf("%v", key)] = stringifyKeys(val)
		}
		return out
	case []interface{}:
		for i, item := range typed {
			typed[i] = stringifyKeys(item)
		}
		return typed
	default:
		return value
	}
}

// handleDocsIndex serves a minimal Swagger UI page pointed at the spec.
func (s *Server) handleDocsIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head>
  <title>Model Router API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/docs/openapi.yaml",
      dom_id: "#swagger-ui"
    });
  </script>
</body>
</html>`)
}
