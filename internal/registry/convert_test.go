package registry

import "testing"

import "github.com/stretchr/testify/require"

func TestConvertForWrite_WideningAccepted(t *testing.T) {
	current := Value{Kind: KindU32, U32: 5}
	next, code := ConvertForWrite(current, 0, Value{Kind: KindU16, U16: 7})
	require.Equal(t, OK, code)
	require.Equal(t, uint32(7), next.U32)
}

func TestConvertForWrite_NarrowingOutOfRange(t *testing.T) {
	current := Value{Kind: KindU16, U16: 5}
	_, code := ConvertForWrite(current, 0, Value{Kind: KindI32, I32: 70000})
	require.Equal(t, Range, code)
}

func TestConvertForWrite_EqualityShortCircuitsAlready(t *testing.T) {
	current := Value{Kind: KindI16, I16: 9}
	_, code := ConvertForWrite(current, 0, Value{Kind: KindI16, I16: 9})
	require.Equal(t, Already, code)
}

func TestConvertForWrite_IntegerToFloatIsLossyCast(t *testing.T) {
	current := Value{Kind: KindF32, F32: 0}
	next, code := ConvertForWrite(current, 0, Value{Kind: KindI32, I32: 42})
	require.Equal(t, OK, code)
	require.Equal(t, float32(42), next.F32)
}

func TestConvertForWrite_FloatToIntegerNotSupported(t *testing.T) {
	current := Value{Kind: KindI32, I32: 0}
	_, code := ConvertForWrite(current, 0, Value{Kind: KindF32, F32: 1.5})
	require.Equal(t, NotSupported, code)
}

func TestConvertForWrite_StringRequiresCapacity(t *testing.T) {
	current := Value{Kind: KindString, Str: []byte("ab")}
	_, code := ConvertForWrite(current, 2, Value{Kind: KindString, Str: []byte("abc")})
	require.Equal(t, TooBig, code)
}

func TestConvertForWrite_StringCrossTypeRejected(t *testing.T) {
	current := Value{Kind: KindString, Str: []byte("ab")}
	_, code := ConvertForWrite(current, 8, Value{Kind: KindU16, U16: 1})
	require.Equal(t, NotSupported, code)
}
