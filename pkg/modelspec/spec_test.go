package modelspec

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestParseForms(t *testing.T) {
	cases := []struct {
		input string
		want  Spec
	}{
		{"model.gguf", Spec{Type: TypeUnassigned, Path: "model.gguf"}},
		{"/models/tiny.gguf", Spec{Type: TypeUnassigned, Path: "/models/tiny.gguf"}},
		{"inference:model.gguf", Spec{Type: TypeInference, Path: "model.gguf"}},
		{"stt:7:whisper.bin", Spec{Type: TypeSTT, ID: 7, Path: "whisper.bin"}},
		{"embedding:2:/m/e5.gguf", Spec{Type: TypeEmbedding, ID: 2, Path: "/m/e5.gguf"}},
		// A path containing colons is still just a path when the first
		// segment is not a type token.
		{`C:\models\tiny.gguf`, Spec{Type: TypeUnassigned, Path: `C:\models\tiny.gguf`}},
		// A non-numeric second segment belongs to the path.
		{"tts:voices:en.bin", Spec{Type: TypeTTS, Path: "voices:en.bin"}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.input)
		require.NoError(t, err, "input %q", tc.input)
		require.Equal(t, tc.want, got, "input %q", tc.input)
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"", "inference:", "inference", "stt:0:model.bin", "tts:3:"} {
		_, err := Parse(input)
		require.Error(t, err, "input %q", input)
	}
}

// TestProperty_ParseFormatIdentity verifies Parse(Format(spec)) is the
// identity on well-formed specs.
func TestProperty_ParseFormatIdentity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	genType := gen.OneConstOf(TypeInference, TypeSTT, TypeTTS, TypeEmbedding, TypeUnassigned)
	genPath := gen.RegexMatch(`[a-z][a-z0-9_/.-]{0,30}`)

	properties.Property("parse after format is the identity", prop.ForAll(
		func(typ Type, id uint64, path string) bool {
			// A bare path equal to a type token is the one ambiguous
			// form; the grammar reads it as a typed spec with no path.
			if Type(path).Valid() {
				return true
			}
			spec := Spec{Type: typ, Path: path}
			if typ != TypeUnassigned {
				spec.ID = id
			}
			got, err := Parse(spec.Format())
			return err == nil && got == spec
		},
		genType,
		gen.UInt64Range(1, 1<<20),
		genPath,
	))

	properties.TestingRun(t)
}
