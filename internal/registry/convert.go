package registry

import "math/big"

// ConvertForWrite applies the safe widening/narrowing rules of spec §4.3 to
// an incoming value being written over current (which already carries the
// destination Kind and, for string/blob, the declared capacity). It returns
// the value to store and a Code: OK on an accepted change, Already if the
// write is a no-op, Range/TooBig/NotSupported on rejection.
func ConvertForWrite(current Value, capacity int, incoming Value) (Value, Code) {
	dst := current.Kind

	switch dst {
	case KindString:
		if incoming.Kind != KindString {
			return Value{}, NotSupported
		}
		if len(incoming.Str) > capacity {
			return Value{}, TooBig
		}
		if current.Equal(incoming) {
			return current, Already
		}
		return Value{Kind: KindString, Str: append([]byte(nil), incoming.Str...)}, OK

	case KindBlob:
		if incoming.Kind != KindBlob {
			return Value{}, NotSupported
		}
		if len(incoming.Blob) > capacity {
			return Value{}, TooBig
		}
		if current.Equal(incoming) {
			return current, Already
		}
		return Value{Kind: KindBlob, Blob: append([]byte(nil), incoming.Blob...)}, OK

	case KindF32:
		if incoming.Kind == KindF32 {
			if current.Equal(incoming) {
				return current, Already
			}
			return incoming, OK
		}
		if !incoming.Kind.isInteger() {
			return Value{}, NotSupported
		}
		srcBig, ok := asBigInt(incoming)
		if !ok {
			return Value{}, NotSupported
		}
		f, _ := new(big.Float).SetInt(srcBig).Float32()
		next := Value{Kind: KindF32, F32: f}
		if current.Equal(next) {
			return current, Already
		}
		return next, OK

	default:
		if !dst.isInteger() {
			return Value{}, NotSupported
		}
		if incoming.Kind == KindF32 {
			// Non-goal: dynamic float->integer narrowing is outside the
			// safe widening/narrowing rule set.
			return Value{}, NotSupported
		}
		if !incoming.Kind.isInteger() {
			return Value{}, NotSupported
		}
		if incoming.Kind == dst {
			if current.Equal(incoming) {
				return current, Already
			}
			return incoming, OK
		}

		srcBig, ok := asBigInt(incoming)
		if !ok {
			return Value{}, NotSupported
		}
		lo, hi := kindRange(dst)
		if srcBig.Cmp(lo) < 0 || srcBig.Cmp(hi) > 0 {
			return Value{}, Range
		}
		next := setFromBigInt(dst, srcBig)
		if current.Equal(next) {
			return current, Already
		}
		return next, OK
	}
}
