// Package modelspec parses the colon-delimited model specification used on
// the serve command line: "path", "type:path", or "type:id:path".
package modelspec

import (
	"fmt"
	"strconv"
	"strings"
)

// Type classifies what a loaded model is used for.
type Type string

const (
	TypeInference  Type = "inference"
	TypeSTT        Type = "stt"
	TypeTTS        Type = "tts"
	TypeEmbedding  Type = "embedding"
	TypeUnassigned Type = "unassigned"
)

// Valid reports whether t is one of the closed spec types.
// TypeUnassigned is internal and never appears in a spec string.
func (t Type) Valid() bool {
	switch t {
	case TypeInference, TypeSTT, TypeTTS, TypeEmbedding:
		return true
	}
	return false
}

// Spec is one parsed model specification.
type Spec struct {
	Type Type
	ID   uint64 // 0 means auto-assign
	Path string
}

// Parse parses a spec string. The grammar is resolved left to right: a
// leading segment that names a known type is consumed as the type, an
// optional positive integer segment after it as the explicit id, and the
// remainder is the path. A path may itself contain colons (Windows drive
// letters), which is why only recognized type tokens start a typed spec.
func Parse(s string) (Spec, error) {
	if s == "" {
		return Spec{}, fmt.Errorf("empty model spec")
	}

	spec := Spec{Type: TypeUnassigned}

	head, rest, ok := strings.Cut(s, ":")
	if !ok || !Type(head).Valid() {
		spec.Path = s
		if Type(head).Valid() {
			return Spec{}, fmt.Errorf("model spec %q has no path", s)
		}
		return spec, nil
	}
	spec.Type = Type(head)

	if idPart, path, ok2 := strings.Cut(rest, ":"); ok2 {
		if id, err := strconv.ParseUint(idPart, 10, 64); err == nil {
			if id == 0 {
				return Spec{}, fmt.Errorf("model spec %q: id must be positive", s)
			}
			if path == "" {
				return Spec{}, fmt.Errorf("model spec %q has no path", s)
			}
			spec.ID = id
			spec.Path = path
			return spec, nil
		}
	}

	if rest == "" {
		return Spec{}, fmt.Errorf("model spec %q has no path", s)
	}
	spec.Path = rest
	return spec, nil
}

// Format renders the spec back into its canonical string form.
// Parse(Format(s)) is the identity on well-formed specs.
func (s Spec) Format() string {
	if s.Type == TypeUnassigned || !s.Type.Valid() {
		return s.Path
	}
	if s.ID != 0 {
		return fmt.Sprintf("%s:%d:%s", s.Type, s.ID, s.Path)
	}
	return fmt.Sprintf("%s:%s", s.Type, s.Path)
}
