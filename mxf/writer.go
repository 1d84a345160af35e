package mxf

import "fmt"

// Caps is a minimal stand-in for the host framework's negotiated stream
// capabilities (resolution, codec parameters, sample format) that an
// essence-element-writer inspects to build its descriptor. The muxer
// itself is codec-agnostic; concrete writers (for a specific essence
// type) interpret Caps however their codec requires.
type Caps map[string]any

// EssenceBuffer is one input buffer of elementary-stream data along with
// its presentation/decode timing.
type EssenceBuffer struct {
	Data       []byte
	PTS        int64 // in edit-rate units
	DTS        int64
	IsKeyframe bool
}

// WriteResult reports whether Write completed a full Generic Container
// edit unit or only buffered a partial one (spec.md §4.7.2: "write(...) ->
// either 'partial' or 'full edit unit'").
type WriteResult struct {
	Complete bool
	EditUnit []byte
}

// EssenceElementWriter is the per-essence-type plugin interface spec.md
// §4.7.2 describes. The muxer never constructs one directly; it resolves
// one from the process-wide Registry by pad template name.
type EssenceElementWriter interface {
	// GetDescriptor builds the essence descriptor for this writer's
	// essence type from caps.
	GetDescriptor(caps Caps) (EssenceDescriptor, error)

	// GetEditRate returns this essence's edit rate given its descriptor,
	// caps and (optionally) the first buffer.
	GetEditRate(desc EssenceDescriptor, caps Caps, first *EssenceBuffer) (Rational, error)

	// GetTrackNumberTemplate returns a Generic Container track number
	// template with the middle bytes (essence kind/count) filled and the
	// low byte left zero; the muxer ORs in the pad's 1-based ordinal
	// within its data-definition type.
	GetTrackNumberTemplate(desc EssenceDescriptor, caps Caps) uint32

	// UpdateDescriptor refreshes desc in place when caps or an inspected
	// buffer reveal new structural information (e.g. actual frame size).
	UpdateDescriptor(desc EssenceDescriptor, caps Caps, buf *EssenceBuffer)

	// Write buffers or emits one edit unit. flush forces emission of any
	// partial edit unit at EOS.
	Write(buf *EssenceBuffer, flush bool) (WriteResult, error)

	// DataDefinitionUL identifies this writer's essence kind (picture or
	// sound) for Sequence/Track construction and pad sort order.
	DataDefinitionUL() UL
}

// WriterFactory constructs a fresh EssenceElementWriter instance for one
// pad.
type WriterFactory func() EssenceElementWriter

// Registry is the process-wide, append-only essence-element-writer
// registry spec.md §9 calls for ("In a language without static
// initializers, centralize the plugin init routine that appends each
// writer"). Go has package-level init(), so concrete writer packages
// register themselves from their own init() functions against this
// single process-wide instance.
type Registry struct {
	factories map[string]WriterFactory
}

var defaultRegistry = &Registry{factories: make(map[string]WriterFactory)}

// Register installs factory under padTemplate in the process-wide
// registry. Panics on a duplicate template name, since registration only
// ever happens from package init().
func Register(padTemplate string, factory WriterFactory) {
	if _, exists := defaultRegistry.factories[padTemplate]; exists {
		panic(fmt.Sprintf("mxf: duplicate essence-element-writer registration for %q", padTemplate))
	}
	defaultRegistry.factories[padTemplate] = factory
}

// Resolve looks up the writer factory for padTemplate and constructs a
// fresh writer instance for one pad.
func Resolve(padTemplate string) (EssenceElementWriter, error) {
	factory, ok := defaultRegistry.factories[padTemplate]
	if !ok {
		return nil, fmt.Errorf("mxf: no essence-element-writer registered for pad template %q", padTemplate)
	}
	return factory(), nil
}

// Registered lists every pad template currently registered, for
// diagnostics and tests.
func Registered() []string {
	out := make([]string, 0, len(defaultRegistry.factories))
	for name := range defaultRegistry.factories {
		out = append(out, name)
	}
	return out
}
