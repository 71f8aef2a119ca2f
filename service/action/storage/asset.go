package storage

import (
	"path"
	"strings"
	"time"
)

// Asset represents a file or folder
type Asset struct {
	URL         string    `json:"url" yaml:"url"`
	Name        string    `json:"name" yaml:"name"`
	IsDir       bool      `json:"isDir,omitempty" yaml:"isDir,omitempty"`
	Size        int64     `json:"size,omitempty" yaml:"size,omitempty"`
	ModTime     time.Time `json:"modTime,omitempty" yaml:"modTime,omitempty"`
	Data        []byte    `json:"data,omitempty" yaml:"data,omitempty"`
	ContentType string    `json:"contentType,omitempty" yaml:"contentType,omitempty"`
}

var contentTypes = map[string]string{
	".json": "application/json",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".html": "text/html",
	".xml":  "application/xml",
	".gz":   "application/gzip",
	".zip":  "application/zip",
}

// contentType guesses the content type from the file extension.
func contentType(location string) string {
	if ret, ok := contentTypes[strings.ToLower(path.Ext(location))]; ok {
		return ret
	}
	return "application/octet-stream"
}
