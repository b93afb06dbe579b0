package interp

import (
	"math"
	"strconv"

	"github.com/fuzzball-muck/muckd/internal/muf/frame"
	"github.com/fuzzball-muck/muckd/internal/muf/value"
	"github.com/fuzzball-muck/muckd/internal/seed"
)

// floatUnary builds a one-argument float primitive from a math function,
// setting FlagNaN when the result is not-a-number (e.g. sqrt of a
// negative), matching spec 4.F's sticky-error-flag convention rather than
// aborting the frame.
func floatUnary(fn func(float64) float64) primFunc {
	return func(it *Interp, f *frame.Frame, _ value.Value) *Abort {
		vals, ab := it.checkArgs(f, "f")
		if ab != nil {
			return ab
		}
		r := fn(vals[0].F)
		if math.IsNaN(r) {
			f.Errors |= frame.FlagNaN
		}
		return push(f, value.FloatV(r))
	}
}

func floatBinary(fn func(a, b float64) float64) primFunc {
	return func(it *Interp, f *frame.Frame, _ value.Value) *Abort {
		vals, ab := it.checkArgs(f, "ff")
		if ab != nil {
			return ab
		}
		r := fn(vals[0].F, vals[1].F)
		if math.IsNaN(r) {
			f.Errors |= frame.FlagNaN
		}
		return push(f, value.FloatV(r))
	}
}

// modf splits a float into integer and fractional parts, pushing both.
func modf(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "f")
	if ab != nil {
		return ab
	}
	ipart, fpart := math.Modf(vals[0].F)
	if err := f.Push(value.FloatV(ipart)); err != nil {
		return recoverable("%v", err)
	}
	return push(f, value.FloatV(fpart))
}

// strtof parses s as a float, setting FlagNaN and pushing 0.0 on failure
// rather than aborting, matching the original's lenient STRTOF.
func strtof(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "s")
	if ab != nil {
		return ab
	}
	s := vals[0].Str.Get()
	vals[0].Release()
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f.Errors |= frame.FlagNaN
		return push(f, value.FloatV(0))
	}
	return push(f, value.FloatV(n))
}

// gaussian draws a standard-normal deviate via Box-Muller, caching the
// paired second draw on the frame the way the original's frame-local RNG
// state does, matching spec 4.L's per-frame RNG buffer description.
func gaussian(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	if f.GaussHasSaved {
		f.GaussHasSaved = false
		return push(f, value.FloatV(f.GaussSaved))
	}
	var u, v, s float64
	for {
		u = 2*seed.RndFloat(&f.RNGBuf) - 1
		v = 2*seed.RndFloat(&f.RNGBuf) - 1
		s = u*u + v*v
		if s > 0 && s < 1 {
			break
		}
	}
	mul := math.Sqrt(-2 * math.Log(s) / s)
	f.GaussSaved = v * mul
	f.GaussHasSaved = true
	return push(f, value.FloatV(u*mul))
}

// srand reseeds the frame's RNG buffer from a 32-character string,
// matching SRAND.
func srand(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	vals, ab := it.checkArgs(f, "s")
	if ab != nil {
		return ab
	}
	f.RNGBuf = seed.InitFromString(vals[0].Str.Get())
	vals[0].Release()
	return nil
}

// rndPrim pushes the next pseudo-random integer from the frame's RNG.
func rndPrim(it *Interp, f *frame.Frame, _ value.Value) *Abort {
	return push(f, value.IntV(int(seed.Rnd(&f.RNGBuf))))
}
