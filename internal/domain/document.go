package domain

import "fmt"

// Document is a title+content pair submitted for embedding.
type Document struct {
	ID      string // server-assigned, optional
	Title   string
	Content string
}

// SearchResult is a single ranked hit returned by the backend.
type SearchResult struct {
	ID         string
	Title      string
	Content    string
	Similarity float64 // 0.0–1.0
}

// UploadFile is one file selected for a batch upload.
type UploadFile struct {
	Name string
	Size int64
	Data []byte
}

// SizeKB formats the file size the way the upload page lists it.
func (f UploadFile) SizeKB() string {
	return fmt.Sprintf("%.2f KB", float64(f.Size)/1024)
}

// FileResult is the per-file status reported by a batch upload.
type FileResult struct {
	Filename string
	Status   string
}

// UploadSummary is the backend response to a batch upload.
type UploadSummary struct {
	Message string
	Results []FileResult
}
