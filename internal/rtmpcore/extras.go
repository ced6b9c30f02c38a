// Extras rendering: turns the AMF arguments captured past the connect
// command object into the downloader's `-C` flag syntax.
//
// Each property becomes one "-C [N]<T>:[name:]value" fragment, with T
// drawn from the letter table "NBSO" (Number/Bool/String/Object); arrays
// are coerced to objects before rendering; nested objects are bracketed
// with a trailing "-C O:0".

package rtmpcore

import (
	"sort"
	"strconv"
	"strings"
)

// RenderExtrasArgs serializes a link's captured extras into downloader
// argv entries: one "-C" flag plus one value per fragment. Values are
// never split or re-quoted, so a string extra containing spaces stays a
// single argv entry.
func RenderExtrasArgs(extras []ExtraArg) []string {
	frags := extrasFragments(extras)
	args := make([]string, 0, len(frags)*2)
	for _, f := range frags {
		args = append(args, "-C", f)
	}
	return args
}

// RenderExtras renders the same fragments as one flat " -C ..." string,
// used where a single display string is wanted rather than an argv.
func RenderExtras(extras []ExtraArg) string {
	var b strings.Builder
	for _, f := range extrasFragments(extras) {
		b.WriteString(" -C " + f)
	}
	return b.String()
}

func extrasFragments(extras []ExtraArg) []string {
	frags := make([]string, 0, len(extras))
	for _, e := range extras {
		frags = appendExtraValue(frags, e.Name, &e.Value)
	}
	return frags
}

func appendExtraValue(frags []string, name string, v *AMF0Value) []string {
	prefix := ""
	suffix := ""
	if name != "" {
		prefix = "N"
		suffix = name + ":"
	}

	switch {
	case v.amf_type == AMF0_TYPE_NUMBER:
		frags = append(frags, prefix+"N:"+suffix+strconv.FormatFloat(v.GetDouble(), 'f', -1, 64))
	case v.amf_type == AMF0_TYPE_BOOL:
		val := "0"
		if v.GetBool() {
			val = "1"
		}
		frags = append(frags, prefix+"B:"+suffix+val)
	case v.amf_type == AMF0_TYPE_STRING || v.amf_type == AMF0_TYPE_LONG_STRING:
		frags = append(frags, prefix+"S:"+suffix+v.GetString())
	case v.amf_type == AMF0_TYPE_OBJECT || v.amf_type == AMF0_TYPE_TYPED_OBJ || v.amf_type == AMF0_TYPE_ARRAY:
		// Arrays are coerced to objects: same bracketed rendering.
		frags = append(frags, prefix+"O:"+suffix+"1")
		keys := make([]string, 0, len(v.obj_val))
		for k := range v.obj_val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			frags = appendExtraValue(frags, k, v.obj_val[k])
		}
		frags = append(frags, "O:0")
	default:
		// Null/undefined/unsupported types have no letter in the table
		// and contribute nothing.
	}

	return frags
}
