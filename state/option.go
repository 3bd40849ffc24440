package state

import (
	"fmt"
	"strings"
)

// Option is one selectable choice offered to the user when the analyzer
// decides the request is ambiguous.
type Option struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Label renders the option in the form shown to the user and appended to
// the input on selection.
func (o Option) Label() string {
	if o.Description == "" {
		return o.Title
	}
	return fmt.Sprintf("%s - %s", o.Title, o.Description)
}

// Describer lets foreign types act as options without converting first.
type Describer interface {
	OptionTitle() string
	OptionDescription() string
}

// NormalizeOption converts a loosely typed value into a canonical Option.
// Model responses arrive as free-form JSON, so the analyzer may hand us
// maps, strings, already-typed options, or anything implementing
// Describer. Values with no usable title are rejected.
func NormalizeOption(v any) (Option, bool) {
	switch t := v.(type) {
	case Option:
		return t, t.Title != ""
	case *Option:
		if t == nil {
			return Option{}, false
		}
		return *t, t.Title != ""
	case string:
		s := strings.TrimSpace(t)
		return Option{Title: s}, s != ""
	case map[string]any:
		o := Option{
			Title:       stringField(t, "title"),
			Description: stringField(t, "description"),
		}
		if o.Title == "" {
			o.Title = stringField(t, "name")
		}
		return o, o.Title != ""
	case map[string]string:
		o := Option{Title: strings.TrimSpace(t["title"]), Description: strings.TrimSpace(t["description"])}
		return o, o.Title != ""
	case Describer:
		o := Option{Title: strings.TrimSpace(t.OptionTitle()), Description: strings.TrimSpace(t.OptionDescription())}
		return o, o.Title != ""
	default:
		return Option{}, false
	}
}

// NormalizeOptions converts a heterogeneous slice into canonical options,
// dropping entries that cannot be normalized.
func NormalizeOptions(in []any) []Option {
	if len(in) == 0 {
		return nil
	}
	out := make([]Option, 0, len(in))
	for _, v := range in {
		if o, ok := NormalizeOption(v); ok {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FindOption matches a user-selected title against the offered options,
// case-insensitively and ignoring surrounding whitespace.
func FindOption(opts []Option, title string) (Option, bool) {
	want := strings.ToLower(strings.TrimSpace(title))
	if want == "" {
		return Option{}, false
	}
	for _, o := range opts {
		if strings.ToLower(strings.TrimSpace(o.Title)) == want {
			return o, true
		}
	}
	return Option{}, false
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
