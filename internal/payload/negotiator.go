package payload

import (
	"dropd/internal/log"
	"dropd/pkg/types"
)

// genericFallbacks are appended to every negotiated identifier list so a
// provider that only registered exotic identifiers still gets a chance to
// hand over a plain item, raw bytes, or a URL.
var genericFallbacks = []string{types.TypeItem, types.TypeRawBytes, types.TypeURL}

// Descriptor is the negotiated view of a single drag source: the source
// itself, its type identifiers in the order resolution should try them,
// and the name the source suggested for the final artifact.
type Descriptor struct {
	Provider      types.PayloadProvider
	Identifiers   []string
	SuggestedName string
}

// Negotiate orders a provider's registered type identifiers for resolution.
// Duplicates are dropped keeping the first occurrence, a file reference is
// promoted to the front regardless of where the provider listed it, and the
// generic fallback identifiers are appended when absent. Returns nil when
// the provider registered nothing usable.
func Negotiate(provider types.PayloadProvider) *Descriptor {
	if provider == nil {
		return nil
	}

	seen := make(map[string]bool)
	ordered := make([]string, 0, len(provider.RegisteredTypeIdentifiers()))
	hasFileRef := false

	for _, id := range provider.RegisteredTypeIdentifiers() {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if id == types.TypeFileReference {
			hasFileRef = true
			continue
		}
		ordered = append(ordered, id)
	}

	if len(ordered) == 0 && !hasFileRef {
		return nil
	}

	// Files already on disk are the cheapest representation to materialize,
	// so a file reference always wins the first attempt.
	if hasFileRef {
		ordered = append([]string{types.TypeFileReference}, ordered...)
	}

	for _, id := range genericFallbacks {
		if !seen[id] {
			ordered = append(ordered, id)
		}
	}

	log.LogWithFields(
		log.F("identifiers", len(ordered)),
		log.F("suggested_name", provider.SuggestedName()),
	).Debug("Negotiated payload identifiers")

	return &Descriptor{
		Provider:      provider,
		Identifiers:   ordered,
		SuggestedName: provider.SuggestedName(),
	}
}
