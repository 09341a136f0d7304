// Package documents keeps the text of documents the client has opened and
// applies full or incremental content changes to them.
package documents

import (
	"errors"
	"fmt"
	"sync"

	"github.com/akhenakh/jsondate-lsp/protocol"
)

// ErrUnknownDocument is returned for incremental changes to a document that was never opened.
var ErrUnknownDocument = errors.New("document not open")

// Store holds open documents. It is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	docs map[protocol.DocumentURI]Document
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{docs: make(map[protocol.DocumentURI]Document)}
}

// Open records a document from a didOpen notification.
func (s *Store) Open(item protocol.TextDocumentItem) Document {
	doc := Document{
		URI:        item.URI,
		LanguageID: item.LanguageID,
		Version:    item.Version,
		Text:       item.Text,
	}
	s.mu.Lock()
	s.docs[item.URI] = doc
	s.mu.Unlock()
	return doc
}

// Change applies content changes in order and returns the new snapshot.
// A full-text change for an unknown document opens it.
func (s *Store) Change(id protocol.VersionedTextDocumentIdentifier, changes []protocol.TextDocumentContentChangeEvent) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id.URI]
	if !ok {
		doc = Document{URI: id.URI}
	}
	for i, change := range changes {
		if change.Range == nil {
			doc.Text = change.Text
			ok = true
			continue
		}
		if !ok {
			return Document{}, fmt.Errorf("%w: %s", ErrUnknownDocument, id.URI)
		}
		start, end := doc.OffsetAt(change.Range.Start), doc.OffsetAt(change.Range.End)
		if end < start {
			return Document{}, fmt.Errorf("change %d for %s: range end %v before start %v", i, id.URI, change.Range.End, change.Range.Start)
		}
		doc.Text = doc.Text[:start] + change.Text + doc.Text[end:]
	}
	doc.Version = id.Version
	s.docs[id.URI] = doc
	return doc, nil
}

// Close forgets a document. It reports whether the document was open.
func (s *Store) Close(uri protocol.DocumentURI) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[uri]
	delete(s.docs, uri)
	return ok
}

// Get returns the current snapshot of a document.
func (s *Store) Get(uri protocol.DocumentURI) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	return doc, ok
}

// Len returns the number of open documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
