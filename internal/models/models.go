// Package models defines the records idmkit stores in its index and serves
// over HTTP and MCP.
package models

import "time"

// Section is one indexed section of a collection file.
type Section struct {
	File     string   `json:"file"`
	Path     string   `json:"path"`
	Headline string   `json:"headline"`
	Tags     []string `json:"tags"`
	URI      string   `json:"uri,omitempty"`
}

// SearchHit is one search result.
type SearchHit struct {
	File     string `json:"file"`
	Path     string `json:"path"`
	Headline string `json:"headline"`
	Snippet  string `json:"snippet"`
}

// TagCount is the number of items a tag applies to.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// FileInfo is a lightweight representation returned by list operations.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Sections  int       `json:"sections"`
	UpdatedAt time.Time `json:"updated_at"`
}
