package interp

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/fuzzball-muck/muckd/internal/muf/frame"
	"github.com/fuzzball-muck/muckd/internal/muf/value"
	"github.com/fuzzball-muck/muckd/internal/seed"
)

func strlen(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "s")
	if ab != nil {
		return ab
	}
	n := vals[0].Str.Len()
	vals[0].Release()
	return push(f, value.IntV(n))
}

func strcat(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "ss")
	if ab != nil {
		return ab
	}
	s := vals[0].Str.Get() + vals[1].Str.Get()
	vals[0].Release()
	vals[1].Release()
	return push(f, value.StringV(s))
}

func strcmp(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "ss")
	if ab != nil {
		return ab
	}
	c := strings.Compare(vals[0].Str.Get(), vals[1].Str.Get())
	vals[0].Release()
	vals[1].Release()
	return push(f, value.IntV(c))
}

// strcut splits s at byte offset n, pushing the head then the tail,
// matching "s n strcut -- head tail".
func strcut(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "si")
	if ab != nil {
		return ab
	}
	s := vals[0].Str.Get()
	vals[0].Release()
	n := vals[1].I
	if n < 0 {
		n = 0
	}
	if n > len(s) {
		n = len(s)
	}
	if err := f.Push(value.StringV(s[:n])); err != nil {
		return recoverable("%v", err)
	}
	return push(f, value.StringV(s[n:]))
}

func toupper(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "s")
	if ab != nil {
		return ab
	}
	s := strings.ToUpper(vals[0].Str.Get())
	vals[0].Release()
	return push(f, value.StringV(s))
}

func tolower(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "s")
	if ab != nil {
		return ab
	}
	s := strings.ToLower(vals[0].Str.Get())
	vals[0].Release()
	return push(f, value.StringV(s))
}

// instr finds needle in haystack, 1-based, 0 if absent, matching
// "haystack needle instr -- pos".
func instr(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "ss")
	if ab != nil {
		return ab
	}
	haystack, needle := vals[0].Str.Get(), vals[1].Str.Get()
	vals[0].Release()
	vals[1].Release()
	i := strings.Index(haystack, needle)
	return push(f, value.IntV(i+1))
}

func rinstr(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "ss")
	if ab != nil {
		return ab
	}
	haystack, needle := vals[0].Str.Get(), vals[1].Str.Get()
	vals[0].Release()
	vals[1].Release()
	i := strings.LastIndex(haystack, needle)
	return push(f, value.IntV(i+1))
}

// subst implements "s old new subst -- result", replacing every
// occurrence of old in s with new.
func subst(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "sss")
	if ab != nil {
		return ab
	}
	s, old, new_ := vals[0].Str.Get(), vals[1].Str.Get(), vals[2].Str.Get()
	vals[0].Release()
	vals[1].Release()
	vals[2].Release()
	return push(f, value.StringV(strings.ReplaceAll(s, old, new_)))
}

func explode(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "ss")
	if ab != nil {
		return ab
	}
	s, sep := vals[0].Str.Get(), vals[1].Str.Get()
	vals[0].Release()
	vals[1].Release()
	parts := strings.Split(s, sep)
	arr := value.NewArray(value.Packed)
	for _, p := range parts {
		arr.Append(value.StringV(p))
	}
	return push(f, value.ArrayV(arr))
}

func md5Hash(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "s")
	if ab != nil {
		return ab
	}
	digest := seed.MD5Hex([]byte(vals[0].Str.Get()))
	vals[0].Release()
	return push(f, value.StringV(digest))
}

func sha1Hash(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "s")
	if ab != nil {
		return ab
	}
	digest := seed.SHA1Hex([]byte(vals[0].Str.Get()))
	vals[0].Release()
	return push(f, value.StringV(digest))
}

// ansiStrlen and ansiStrip give MUF's display-aware string primitives
// (spec 4.F's notification/formatting example family) access to the same
// escape stripping internal/notify applies for ANSI-stripping recipients,
// with go-runewidth measuring the display width.
func ansiStrlen(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "s")
	if ab != nil {
		return ab
	}
	n := runewidth.StringWidth(ansi.Strip(vals[0].Str.Get()))
	vals[0].Release()
	return push(f, value.IntV(n))
}

func ansiStrip(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "s")
	if ab != nil {
		return ab
	}
	s := ansi.Strip(vals[0].Str.Get())
	vals[0].Release()
	return push(f, value.StringV(s))
}
