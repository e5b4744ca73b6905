package registry

import "math/big"

// Kind is the tag of the Value union (component A).
type Kind int

const (
	KindInvalid Kind = iota
	KindU16
	KindI16
	KindU32
	KindI32
	KindU64
	KindI64
	KindF32
	KindString
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindU16:
		return "u16"
	case KindI16:
		return "i16"
	case KindU32:
		return "u32"
	case KindI32:
		return "i32"
	case KindU64:
		return "u64"
	case KindI64:
		return "i64"
	case KindF32:
		return "f32"
	case KindString:
		return "string"
	case KindBlob:
		return "blob"
	default:
		return "invalid"
	}
}

func (k Kind) isInteger() bool {
	switch k {
	case KindU16, KindI16, KindU32, KindI32, KindU64, KindI64:
		return true
	default:
		return false
	}
}

func (k Kind) isUnsigned() bool {
	switch k {
	case KindU16, KindU32, KindU64:
		return true
	default:
		return false
	}
}

// Value is the tagged-union scalar/string/blob value described in spec §3.3.
// Strings and blobs carry their live length separately from the declared
// capacity of the backing buffer (set once at AddNew time).
type Value struct {
	Kind Kind

	U16 uint16
	I16 int16
	U32 uint32
	I32 int32
	U64 uint64
	I64 int64
	F32 float32

	// Str/Blob hold the live content; Capacity (on the owning Storage)
	// bounds how large they may ever grow.
	Str  []byte
	Blob []byte
}

// Equal reports whether two values of the same kind hold the same content.
// Used to detect no-op writes (the ALREADY short-circuit of spec §4.3/§4.1).
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindU16:
		return v.U16 == o.U16
	case KindI16:
		return v.I16 == o.I16
	case KindU32:
		return v.U32 == o.U32
	case KindI32:
		return v.I32 == o.I32
	case KindU64:
		return v.U64 == o.U64
	case KindI64:
		return v.I64 == o.I64
	case KindF32:
		return v.F32 == o.F32
	case KindString:
		return bytesEqual(v.Str, o.Str)
	case KindBlob:
		return bytesEqual(v.Blob, o.Blob)
	default:
		return true
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// asBigInt returns the exact integer value of an integer-kinded Value, or
// ok=false if v is not an integer kind. Using math/big avoids any precision
// loss when comparing across the full u64/i64 range, which plain int64
// arithmetic cannot represent without overflow.
func asBigInt(v Value) (*big.Int, bool) {
	switch v.Kind {
	case KindU16:
		return big.NewInt(int64(v.U16)), true
	case KindI16:
		return big.NewInt(int64(v.I16)), true
	case KindU32:
		return big.NewInt(int64(v.U32)), true
	case KindI32:
		return big.NewInt(int64(v.I32)), true
	case KindU64:
		return new(big.Int).SetUint64(v.U64), true
	case KindI64:
		return big.NewInt(v.I64), true
	default:
		return nil, false
	}
}

// kindRange returns the [min, max] representable by an integer Kind.
func kindRange(k Kind) (min, max *big.Int) {
	switch k {
	case KindU16:
		return big.NewInt(0), big.NewInt(0xFFFF)
	case KindI16:
		return big.NewInt(-32768), big.NewInt(32767)
	case KindU32:
		return big.NewInt(0), big.NewInt(0xFFFFFFFF)
	case KindI32:
		return big.NewInt(-2147483648), big.NewInt(2147483647)
	case KindU64:
		return big.NewInt(0), new(big.Int).SetUint64(0xFFFFFFFFFFFFFFFF)
	case KindI64:
		lo := new(big.Int).Lsh(big.NewInt(-1), 63)
		hi := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 63), big.NewInt(1))
		return lo, hi
	default:
		return big.NewInt(0), big.NewInt(0)
	}
}

// setFromBigInt writes i (already range-checked against dst) into a Value
// of kind dst.
func setFromBigInt(dst Kind, i *big.Int) Value {
	v := Value{Kind: dst}
	switch dst {
	case KindU16:
		v.U16 = uint16(i.Int64())
	case KindI16:
		v.I16 = int16(i.Int64())
	case KindU32:
		v.U32 = uint32(i.Int64())
	case KindI32:
		v.I32 = int32(i.Int64())
	case KindU64:
		v.U64 = i.Uint64()
	case KindI64:
		v.I64 = i.Int64()
	}
	return v
}
