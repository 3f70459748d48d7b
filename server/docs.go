package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// swaggerURLEntry is one row of the /docs/swagger-config.json response.
type swaggerURLEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type swaggerConfig struct {
	URLs []swaggerURLEntry `json:"urls"`
}

// defName is the stable key the docs UI uses to reference one upstream's cached
// document: the name in standard base64, whose alphabet includes '+' and '/'.
func defName(upstreamName string) string {
	return base64.StdEncoding.EncodeToString([]byte(upstreamName))
}

// handleSwaggerConfig serves GET /docs/swagger-config.json: the aggregated index
// of every upstream's document, keyed by base64(name), in config order.
func (d *Dispatcher) handleSwaggerConfig(w http.ResponseWriter, r *http.Request) {
	entries := d.table.Snapshot()

	cfg := swaggerConfig{URLs: make([]swaggerURLEntry, len(entries))}
	for i, e := range entries {
		cfg.URLs[i] = swaggerURLEntry{
			Name: e.Config.Name,
			URL:  "/docs/defs/" + defName(e.Config.Name),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}

// handleSwaggerDef serves GET /docs/defs/{def}: the raw cached document bytes for
// the upstream whose base64-encoded name equals def.
func (d *Dispatcher) handleSwaggerDef(w http.ResponseWriter, def string) {
	entries := d.table.Snapshot()

	for _, e := range entries {
		if defName(e.Config.Name) != def {
			continue
		}
		if e.DocumentBytes == nil {
			http.NotFound(w, nil)
			return
		}
		if e.DocumentBytes.ContentType != "" {
			w.Header().Set("Content-Type", e.DocumentBytes.ContentType)
		}
		w.Write(e.DocumentBytes.Bytes)
		return
	}

	http.NotFound(w, nil)
}

// docsContentType infers a response content-type from a static file's extension.
func docsContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".css":
		return "text/css"
	case ".js":
		return "application/javascript"
	case ".html":
		return "text/html"
	case ".png":
		return "image/png"
	case ".json":
		return "application/json"
	case ".yml", ".yaml":
		return "application/yaml"
	default:
		return "text/plain"
	}
}

// swaggerUIDir locates the swagger-ui directory colocated with the executable,
// falling back to the current working directory's swagger-ui.
func swaggerUIDir() string {
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "swagger-ui")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return "swagger-ui"
}

// handleStaticDocs serves GET /docs/* (after the swagger-config and defs routes
// have been ruled out): a file from the swagger-ui directory, defaulting to
// index.html and rejecting path traversal.
func handleStaticDocs(w http.ResponseWriter, r *http.Request) {
	file := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/docs"), "/")

	if strings.HasPrefix(file, ".") || strings.HasPrefix(file, "..") {
		http.NotFound(w, r)
		return
	}
	if file == "" {
		file = "index.html"
	}

	bytes, err := os.ReadFile(filepath.Join(swaggerUIDir(), file))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", docsContentType(file))
	w.Write(bytes)
}
