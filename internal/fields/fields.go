package fields

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Field is the logical name of a version-tracked brand profile field.
type Field string

const (
	BrandName         Field = "brandName"
	Industry          Field = "industry"
	Tagline           Field = "tagline"
	Mission           Field = "mission"
	Vision            Field = "vision"
	CoreValues        Field = "coreValues"
	TargetAudience    Field = "targetAudience"
	Positioning       Field = "positioning"
	PersonalityTraits Field = "personalityTraits"
	ToneOfVoice       Field = "toneOfVoice"
	ColorPalette      Field = "colorPalette"
	Typography        Field = "typography"
	StyleGuide        Field = "styleGuide"
)

// Kind describes how a field's value is shaped before canonical encoding.
type Kind int

const (
	KindScalar Kind = iota
	KindList
	KindObject
)

// Descriptor binds a logical field name to its storage column and value
// shape. The registry below is the single source of truth for which fields
// are version-tracked; a name missing from it is rejected up front instead
// of failing somewhere inside a SQL statement.
type Descriptor struct {
	Name   Field
	Column string
	Kind   Kind
	Label  string
}

var registry = map[Field]Descriptor{
	BrandName:         {Name: BrandName, Column: "brand_name", Kind: KindScalar, Label: "Brand name"},
	Industry:          {Name: Industry, Column: "industry", Kind: KindScalar, Label: "Industry"},
	Tagline:           {Name: Tagline, Column: "tagline", Kind: KindScalar, Label: "Tagline"},
	Mission:           {Name: Mission, Column: "mission", Kind: KindScalar, Label: "Mission statement"},
	Vision:            {Name: Vision, Column: "vision", Kind: KindScalar, Label: "Vision statement"},
	CoreValues:        {Name: CoreValues, Column: "core_values", Kind: KindList, Label: "Core values"},
	TargetAudience:    {Name: TargetAudience, Column: "target_audience", Kind: KindScalar, Label: "Target audience"},
	Positioning:       {Name: Positioning, Column: "positioning", Kind: KindScalar, Label: "Positioning"},
	PersonalityTraits: {Name: PersonalityTraits, Column: "personality_traits", Kind: KindList, Label: "Personality traits"},
	ToneOfVoice:       {Name: ToneOfVoice, Column: "tone_of_voice", Kind: KindScalar, Label: "Tone of voice"},
	ColorPalette:      {Name: ColorPalette, Column: "color_palette", Kind: KindObject, Label: "Color palette"},
	Typography:        {Name: Typography, Column: "typography", Kind: KindObject, Label: "Typography"},
	StyleGuide:        {Name: StyleGuide, Column: "style_guide", Kind: KindObject, Label: "Style guide"},
}

// Lookup resolves a logical field name against the registry.
func Lookup(name string) (Descriptor, bool) {
	d, ok := registry[Field(name)]
	return d, ok
}

// Known reports whether name is a tracked field.
func Known(name string) bool {
	_, ok := registry[Field(name)]
	return ok
}

// All returns every descriptor sorted by field name so callers iterate in a
// stable order (column lists in SQL, prompt rendering, tests).
func All() []Descriptor {
	out := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EncodeValue turns an arbitrary extracted or caller-supplied value into the
// canonical text form stored in both the materialized column and the version
// ledger. Strings pass through; lists and objects become compact JSON.
func EncodeValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", fmt.Errorf("encode field value: %w", err)
		}
		return string(b), nil
	}
}
