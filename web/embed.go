// FilePath: web/embed.go
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed all:static
var staticFS embed.FS

// Handler serves the embedded dashboard page.
func Handler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// embed paths are fixed at compile time; this cannot fail at runtime
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
