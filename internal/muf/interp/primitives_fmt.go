package interp

import (
	"strings"

	"github.com/fuzzball-muck/muckd/internal/muf/frame"
	"github.com/fuzzball-muck/muckd/internal/muf/value"
)

// fmtstring implements "fmt dict FMTSTRING": substitutes each "%[key]s"
// token in fmt with dict[key]'s display form, matching the subset of the
// original's printf-like formatting mini-language spec 4.F names as one
// representative of the formatting primitive family.
func fmtstring(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "sy")
	if ab != nil {
		return ab
	}
	tmpl, dict := vals[0].Str.Get(), vals[1].Arr
	vals[0].Release()
	defer vals[1].Release()

	var out strings.Builder
	i := 0
	for i < len(tmpl) {
		if tmpl[i] == '%' && i+1 < len(tmpl) && tmpl[i+1] == '[' {
			end := strings.IndexByte(tmpl[i+2:], ']')
			if end >= 0 && i+2+end+1 < len(tmpl) && tmpl[i+2+end+1] == 's' {
				key := tmpl[i+2 : i+2+end]
				v, ok := dict.Get(value.StrKey(key))
				if ok {
					out.WriteString(v.AsString())
				}
				i += 2 + end + 2
				continue
			}
		}
		out.WriteByte(tmpl[i])
		i++
	}
	return push(f, value.StringV(out.String()))
}

// arrayFmtstrings maps fmtstring over every element of a packed array of
// dictionaries, matching ARRAY_FMTSTRINGS.
func arrayFmtstrings(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "sy")
	if ab != nil {
		return ab
	}
	tmpl, list := vals[0].Str.Get(), vals[1].Arr
	defer vals[0].Release()
	defer vals[1].Release()

	out := value.NewArray(value.Packed)
	for _, k := range list.Keys() {
		item, _ := list.Get(k)
		if item.Kind != value.Array {
			continue
		}
		rendered := renderTemplate(tmpl, item.Arr)
		out.Append(value.StringV(rendered))
	}
	return push(f, value.ArrayV(out))
}

func renderTemplate(tmpl string, dict *value.SharedArray) string {
	var out strings.Builder
	i := 0
	for i < len(tmpl) {
		if tmpl[i] == '%' && i+1 < len(tmpl) && tmpl[i+1] == '[' {
			end := strings.IndexByte(tmpl[i+2:], ']')
			if end >= 0 && i+2+end+1 < len(tmpl) && tmpl[i+2+end+1] == 's' {
				key := tmpl[i+2 : i+2+end]
				if v, ok := dict.Get(value.StrKey(key)); ok {
					out.WriteString(v.AsString())
				}
				i += 2 + end + 2
				continue
			}
		}
		out.WriteByte(tmpl[i])
		i++
	}
	return out.String()
}
