package catalog

import "reflect"

// attributeFields is the closed set of struct fields the normalizer will
// read from an unknown attribute-bearing item. No generic mapping is
// produced for other fields.
var attributeFields = map[string]string{
	"ID":          "id",
	"Slug":        "slug",
	"ToolSlug":    "tool_slug",
	"Name":        "name",
	"DisplayName": "display_name",
}

// fieldsToMap extracts the fixed field set from a struct (or pointer to
// struct) item. Non-struct items yield nil.
func fieldsToMap(item any) map[string]any {
	v := reflect.ValueOf(item)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	out := make(map[string]any)
	for fieldName, key := range attributeFields {
		f := v.FieldByName(fieldName)
		if !f.IsValid() || f.Kind() != reflect.String {
			continue
		}
		if s := f.String(); s != "" {
			out[key] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
