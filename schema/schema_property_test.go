package schema

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/BaSui01/pipeflow/types"
)

// Generated well-typed payloads always validate, and default merging is
// idempotent and never overrides caller-provided values.
func TestValidateAcceptsWellTypedPayloads(t *testing.T) {
	s := MustNew(
		String("name").WithRequired(),
		Integer("age"),
		Boolean("active"),
		Array("tags", TypeString),
	)

	rapid.Check(t, func(t *rapid.T) {
		data := types.Data{
			"name":   rapid.String().Draw(t, "name"),
			"age":    rapid.Int().Draw(t, "age"),
			"active": rapid.Bool().Draw(t, "active"),
		}
		tags := rapid.SliceOfN(rapid.String(), 0, 8).Draw(t, "tags")
		anyTags := make([]any, len(tags))
		for i, tag := range tags {
			anyTags[i] = tag
		}
		data["tags"] = anyTags

		if err := s.Validate(data); err != nil {
			t.Fatalf("well-typed payload rejected: %v", err)
		}
	})
}

func TestMergeDefaultsNeverOverrides(t *testing.T) {
	defaultLang := "en"
	s := MustNew(
		String("language").WithDefault(defaultLang),
		String("name").WithRequired(),
	)

	rapid.Check(t, func(t *rapid.T) {
		data := types.Data{"name": rapid.String().Draw(t, "name")}
		if rapid.Bool().Draw(t, "hasLanguage") {
			data["language"] = rapid.String().Draw(t, "language")
		}

		merged := s.MergeDefaults(data)

		if provided, ok := data["language"]; ok {
			if merged["language"] != provided {
				t.Fatalf("default overrode provided value: %v", merged["language"])
			}
		} else if merged["language"] != defaultLang {
			t.Fatalf("absent optional field not defaulted: %v", merged["language"])
		}

		// Idempotent: merging twice changes nothing.
		again := s.MergeDefaults(merged)
		if len(again) != len(merged) {
			t.Fatalf("second merge changed the payload: %v vs %v", again, merged)
		}
	})
}
