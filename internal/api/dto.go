package api

import (
	"github.com/starford/idmkit/internal/models"
	"github.com/starford/idmkit/internal/outlineservice"
)

// OutlineDetail is the JSON form of an outline response (aliased from the domain layer).
type OutlineDetail = outlineservice.OutlineDetail

// SearchResult is a single search hit in the API response.
type SearchResult = models.SearchHit

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// TagsResponse wraps tag counts, most used first.
type TagsResponse struct {
	Tags []models.TagCount `json:"tags" validate:"required"`
}

// FilesResponse wraps the indexed files.
type FilesResponse struct {
	Files []models.FileInfo `json:"files" validate:"required"`
}

// SectionsResponse wraps sections found by URI.
type SectionsResponse struct {
	Sections []models.Section `json:"sections" validate:"required"`
}

// ReindexResponse lists the files a reindex changed.
type ReindexResponse struct {
	Created []string `json:"created" validate:"required"`
	Updated []string `json:"updated" validate:"required"`
	Deleted []string `json:"deleted" validate:"required"`
}
