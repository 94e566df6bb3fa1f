// Package assets embeds the client JavaScript, CSS and icons
package assets

import (
	"embed"
	"io/fs"
	"mime"
	"path"
)

//go:embed client/*
var clientFS embed.FS

// ClientFS returns the embedded client files
func ClientFS() fs.FS {
	sub, err := fs.Sub(clientFS, "client")
	if err != nil {
		panic(err)
	}
	return sub
}

// Get returns the embedded client file name, e.g. "lessonview.js".
func Get(name string) ([]byte, error) {
	return fs.ReadFile(ClientFS(), path.Clean(name))
}

// GetClientJS returns the browser JavaScript
func GetClientJS() ([]byte, error) {
	return Get("lessonview.js")
}

// GetClientCSS returns the stylesheet
func GetClientCSS() ([]byte, error) {
	return Get("lessonview.css")
}

// ContentType returns the MIME type served for a file extension.
func ContentType(ext string) string {
	switch ext {
	case ".js":
		return "application/javascript"
	case ".css":
		return "text/css; charset=utf-8"
	case ".svg":
		return "image/svg+xml"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
