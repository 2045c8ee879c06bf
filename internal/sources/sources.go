// =============================================================================
// Clinic Template Migrator - Source Dispatch
// =============================================================================
//
// Each legacy system has its own reader and generator set. The caller names
// the source system explicitly; inputs are never sniffed to guess which
// system produced them.
//
// =============================================================================

package sources

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/clinic-template-migrator/internal/sources/clinni"
	"github.com/ginjaninja78/clinic-template-migrator/internal/sources/dricloud"
	"github.com/ginjaninja78/clinic-template-migrator/internal/sources/mnprogram"
	"github.com/ginjaninja78/clinic-template-migrator/internal/templates"
	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
)

// Kind identifies a source system.
type Kind string

const (
	// Clinni is the generic export: JSON, CSV, gzip, tagged XML or text.
	Clinni Kind = "clinni"

	// DRICloud is the relational XML dump.
	DRICloud Kind = "dricloud"

	// MNProgram is the CSV folder backup.
	MNProgram Kind = "mnprogram"
)

// KindInfo describes a source system for help output.
type KindInfo struct {
	Kind        Kind
	Name        string
	Description string

	// InputIsDir is true when the input path is a directory.
	InputIsDir bool

	// Extensions are the file extensions accepted when a directory is
	// given for a file-based source.
	Extensions []string
}

// Supported lists the source systems.
func Supported() []KindInfo {
	return []KindInfo{
		{Kind: Clinni, Name: "CLINNI", Description: "generic export (JSON, CSV, gzip, XML, text)", Extensions: []string{".json", ".csv", ".xml", ".txt", ".gz"}},
		{Kind: DRICloud, Name: "DRICloud", Description: "relational XML dump", Extensions: []string{".xml"}},
		{Kind: MNProgram, Name: "MN Program", Description: "CSV folder backup", InputIsDir: true},
	}
}

// Info returns the description of kind.
func Info(kind Kind) KindInfo {
	for _, info := range Supported() {
		if info.Kind == kind {
			return info
		}
	}
	return KindInfo{Kind: kind}
}

// ParseKind parses a source selector, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case Clinni, DRICloud, MNProgram:
		return k, nil
	}
	return "", fmt.Errorf("unknown source %q (expected clinni, dricloud or mnprogram)", s)
}

// Dataset is one loaded input ready for template generation.
type Dataset interface {
	// Generate returns the rows of one template. Rows carry only the
	// columns the source can fill.
	Generate(name templates.Name) []types.Row

	// Counts reports the loaded entity collection sizes.
	Counts() types.Counts
}

// Options tune source loading.
type Options struct {
	// Encodings are tried in order for CSV folder files.
	Encodings []string
}

// Open loads the input at path with the reader for kind.
func Open(kind Kind, path string, opts Options, log zerolog.Logger) (Dataset, error) {
	log = log.With().Str("source", string(kind)).Logger()

	switch kind {
	case Clinni:
		ds, err := clinni.Load(path, log)
		return nonNil(ds, err)
	case DRICloud:
		ds, err := dricloud.Load(path, log)
		return nonNil(ds, err)
	case MNProgram:
		ds, err := mnprogram.Load(path, opts.Encodings, log)
		return nonNil(ds, err)
	}
	return nil, fmt.Errorf("unknown source %q", kind)
}

// nonNil keeps a failed load from surfacing as a non-nil interface holding
// a nil pointer.
func nonNil[T Dataset](ds T, err error) (Dataset, error) {
	if err != nil {
		return nil, err
	}
	return ds, nil
}
