package contenthandler

import (
	"context"
	"errors"
	"sync"

	"github.com/openshr/xds-repository/internal/domain/clinical"
	"github.com/openshr/xds-repository/internal/platform/ebxml"
)

// ErrContentNotFound is returned by FetchContent when no stored content
// carries the requested document unique id.
var ErrContentNotFound = errors.New("content not found")

// UnstructuredHandlerID is the stable identifier of the default handler.
// Handler mappings persisted for retrieval reference handlers by these ids.
const UnstructuredHandlerID = "unstructured"

// Handler stores and retrieves document content for a resolved patient and
// encounter context.
type Handler interface {
	// ID is the handler's stable identifier, persisted in handler mappings.
	ID() string
	SaveContent(ctx context.Context, patient *clinical.Patient, providersByRole clinical.ProvidersByRole, encounterType *clinical.EncounterType, content *Content) error
	// FetchContent returns the stored content for the document unique id,
	// or ErrContentNotFound.
	FetchContent(ctx context.Context, docUniqueID string) (*Content, error)
}

type codeKey struct {
	typeCode, typeScheme, formatCode, formatScheme string
}

// Registry resolves handlers by capability: the default unstructured
// handler, type/format-specific discrete handlers, and lookup by stable
// identifier for retrieval-time mapping resolution.
type Registry struct {
	mu           sync.RWMutex
	unstructured Handler
	byCode       map[codeKey]Handler
	byID         map[string]Handler
}

// NewRegistry creates a registry with the given default unstructured handler.
func NewRegistry(unstructured Handler) *Registry {
	r := &Registry{
		unstructured: unstructured,
		byCode:       make(map[codeKey]Handler),
		byID:         make(map[string]Handler),
	}
	r.byID[unstructured.ID()] = unstructured
	return r
}

// DefaultUnstructuredHandler returns the always-present unstructured handler.
func (r *Registry) DefaultUnstructuredHandler() Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.unstructured
}

// Register binds a discrete handler to a (typeCode, formatCode) pair and to
// its stable identifier. A later registration for the same pair replaces the
// earlier one.
func (r *Registry) Register(typeCode, formatCode ebxml.CodedValue, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCode[keyFor(typeCode, formatCode)] = h
	r.byID[h.ID()] = h
}

// Deregister removes the discrete handler bound to the pair, if any.
func (r *Registry) Deregister(typeCode, formatCode ebxml.CodedValue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byCode, keyFor(typeCode, formatCode))
}

// HandlerFor returns the discrete handler registered for the pair, or nil
// when only unstructured storage applies.
func (r *Registry) HandlerFor(typeCode, formatCode ebxml.CodedValue) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byCode[keyFor(typeCode, formatCode)]
}

// HandlerByID returns the handler with the given stable identifier, or nil.
func (r *Registry) HandlerByID(id string) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

func keyFor(typeCode, formatCode ebxml.CodedValue) codeKey {
	return codeKey{
		typeCode:     typeCode.Code,
		typeScheme:   typeCode.CodingScheme,
		formatCode:   formatCode.Code,
		formatScheme: formatCode.CodingScheme,
	}
}
