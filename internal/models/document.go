package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Document is the full per-user state: an ordered list of projects.
// Order is meaningful (display order) and must survive save/load untouched.
type Document []Project

// Project is a named grouping of issues. Names are free text, not unique,
// and may be empty.
type Project struct {
	Name   string  `json:"name"`
	Issues []Issue `json:"issues"`
}

// Issue is one tracked item with an ordered status history.
type Issue struct {
	Issue    string   `json:"issue"`
	Statuses []string `json:"statuses"`
	Closed   bool     `json:"closed"`
}

// Normalize replaces nil slices with empty ones so a document never
// serializes `null` where the client sent `[]`. It returns the receiver for
// chaining.
func (d Document) Normalize() Document {
	for i := range d {
		if d[i].Issues == nil {
			d[i].Issues = []Issue{}
		}
		for j := range d[i].Issues {
			if d[i].Issues[j].Statuses == nil {
				d[i].Issues[j].Statuses = []string{}
			}
		}
	}
	return d
}

// Clone returns a deep copy of the document. The edit buffer hands clones to
// its flush goroutine so mutations never race an in-flight save.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for i, p := range d {
		cp := Project{Name: p.Name, Issues: make([]Issue, len(p.Issues))}
		for j, is := range p.Issues {
			ci := Issue{Issue: is.Issue, Closed: is.Closed}
			ci.Statuses = append([]string(nil), is.Statuses...)
			if ci.Statuses == nil {
				ci.Statuses = []string{}
			}
			cp.Issues[j] = ci
		}
		out[i] = cp
	}
	return out
}

// ErrNotArray is returned by ParseDocument for payloads that decode but are
// not a JSON array (null included).
var ErrNotArray = errors.New("document payload must be a JSON array")

// ParseDocument decodes raw JSON into a Document, rejecting anything that is
// not an array of project-shaped values. `null` is rejected too: a document
// is never null, only possibly empty.
func ParseDocument(raw []byte) (Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotArray
	}
	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = Document{}
	}
	return doc.Normalize(), nil
}

// BackupArtifact wraps a document for export/import. Payload stays raw on the
// way in so restore can reject a non-array without guessing at shapes.
type BackupArtifact struct {
	Payload json.RawMessage `json:"payload"`
}

// ExportArtifact is the outbound form of a backup.
type ExportArtifact struct {
	Payload Document `json:"payload"`
}
