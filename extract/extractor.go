// Package extract is polymorphic over how a WallInstant is derived from a
// probe's HTTP response, so new time sources can be added without touching
// the synchronization engine itself.
package extract

import (
	"net/http"

	"github.com/mobster570/ticketime/clock"
	"github.com/mobster570/ticketime/enginerr"
)

// ID keys the small registry of extractor variants so a ServerTarget can
// persist only an integer rather than a type or a string tag.
type ID int

const (
	// DateHeader parses the RFC-1123/RFC-850/asctime Date response header.
	DateHeader ID = iota
	// ExternalFallback consults a configured trusted time source (NTP-like)
	// when the target returns no usable Date header.
	ExternalFallback
)

// String implements fmt.Stringer.
func (i ID) String() string {
	switch i {
	case ExternalFallback:
		return "external-fallback"
	default:
		return "date-header"
	}
}

// Result is what an Extractor produces from a single response.
type Result struct {
	Instant clock.WallInstant
	// CDNAdvisory is non-empty when a CDN signature was detected in the
	// response headers. The orchestrator surfaces this as an advisory; it
	// never changes engine behavior.
	CDNAdvisory string
}

// Extractor derives a WallInstant from an HTTP response.
type Extractor interface {
	ID() ID
	Extract(resp *http.Response) (Result, *enginerr.SyncError)
}

// registry maps an ID to a constructor so callers can select a variant by
// the integer a ServerTarget persists.
var registry = map[ID]func(cfg Config) Extractor{
	DateHeader:       func(cfg Config) Extractor { return &dateHeaderExtractor{} },
	ExternalFallback: func(cfg Config) Extractor { return newExternalFallback(cfg.ExternalTimeSource) },
}

// Config carries the settings an extractor variant may need to construct
// itself; only ExternalFallback currently uses a field.
type Config struct {
	ExternalTimeSource string
}

// New returns the Extractor registered for id.
func New(id ID, cfg Config) Extractor {
	ctor, ok := registry[id]
	if !ok {
		ctor = registry[DateHeader]
	}
	return ctor(cfg)
}
