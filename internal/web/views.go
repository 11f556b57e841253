package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed views
var viewsFS embed.FS

//go:embed static
var staticFS embed.FS

// Views returns the template engine over the embedded page templates.
func Views() *html.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

func staticRoot() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
