// pkg/network/substrate/decode.go
package substrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/altuslabsxyz/txconfirm/pkg/network"
	"github.com/altuslabsxyz/txconfirm/pkg/network/scale"
)

const maxDecodeDepth = 64

// Call is a decoded runtime call.
type Call struct {
	Pallet  string
	Section string
	Method  string
	Args    []network.EventArg
}

// MarshalJSON renders the call with its arguments as an ordered object.
func (c *Call) MarshalJSON() ([]byte, error) {
	args, err := argsJSON(c.Args)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"section":`)
	section, _ := json.Marshal(c.Section)
	buf.Write(section)
	buf.WriteString(`,"method":`)
	method, _ := json.Marshal(c.Method)
	buf.Write(method)
	buf.WriteString(`,"args":`)
	buf.WriteString(args)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Describe renders the call as "section::method(args)". A call wrapped by the
// sudo pallet is rendered as "sudo::section::method(args)" of the inner call.
func (c *Call) Describe() string {
	if c.Section == "sudo" {
		for _, arg := range c.Args {
			if inner, ok := arg.Value.(*Call); ok {
				return "sudo::" + inner.Describe()
			}
		}
	}
	args, err := argsJSON(c.Args)
	if err != nil {
		args = "?"
	}
	return fmt.Sprintf("%s::%s(%s)", c.Section, c.Method, args)
}

func argsJSON(args []network.EventArg) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, arg := range args {
		if i > 0 {
			buf.WriteByte(',')
		}
		name := arg.Name
		if name == "" {
			name = fmt.Sprintf("%d", i)
		}
		k, _ := json.Marshal(name)
		v, err := json.Marshal(arg.Value)
		if err != nil {
			return "", fmt.Errorf("arg %s: %w", name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

// valueDecoder turns SCALE bytes into Go values by walking the type registry.
type valueDecoder struct {
	m      *Metadata
	format AddressFormat
	depth  int
}

// DecodeValue decodes one value of type id from d.
//
// Composites with named fields become map[string]any, single unnamed fields
// are unwrapped, byte sequences and arrays become 0x-hex strings, account ids
// are rendered with format, u128 values are sdkmath.Uint and u256 values are
// *uint256.Int.
func (m *Metadata) DecodeValue(d *scale.Decoder, id uint32, format AddressFormat) (any, error) {
	v := &valueDecoder{m: m, format: format}
	return v.decode(d, id)
}

// DecodeCall decodes an encoded runtime call.
func (m *Metadata) DecodeCall(call []byte, format AddressFormat) (*Call, error) {
	d := scale.NewDecoder(call)
	v := &valueDecoder{m: m, format: format}
	c, err := v.decodeCall(d)
	if err != nil {
		return nil, err
	}
	if d.Remaining() != 0 {
		return nil, fmt.Errorf("call %s::%s: %d trailing bytes", c.Section, c.Method, d.Remaining())
	}
	return c, nil
}

func (v *valueDecoder) decodeCall(d *scale.Decoder) (*Call, error) {
	pIdx, err := d.U8()
	if err != nil {
		return nil, err
	}
	pallet, ok := v.m.PalletByIndex(pIdx)
	if !ok || pallet.Calls == nil {
		return nil, &NotFoundError{Resource: fmt.Sprintf("call pallet %d", pIdx)}
	}
	cIdx, err := d.U8()
	if err != nil {
		return nil, err
	}
	variant, err := v.m.variant(*pallet.Calls, cIdx)
	if err != nil {
		return nil, fmt.Errorf("pallet %s: %w", pallet.Name, err)
	}

	c := &Call{
		Pallet:  pallet.Name,
		Section: lowerFirst(pallet.Name),
		Method:  snakeToCamel(variant.Name),
	}
	for _, f := range variant.Fields {
		val, err := v.decode(d, f.Type)
		if err != nil {
			return nil, fmt.Errorf("%s::%s arg %s: %w", c.Section, c.Method, f.Name, err)
		}
		c.Args = append(c.Args, network.EventArg{Name: f.Name, TypeName: f.TypeName, Value: val})
	}
	return c, nil
}

func (v *valueDecoder) decode(d *scale.Decoder, id uint32) (any, error) {
	if v.depth > maxDecodeDepth {
		return nil, fmt.Errorf("type %d: nesting too deep", id)
	}
	v.depth++
	defer func() { v.depth-- }()

	if v.m.callTypeID != nil && id == *v.m.callTypeID {
		return v.decodeCall(d)
	}

	t, err := v.m.Type(id)
	if err != nil {
		return nil, err
	}

	switch t.Def.Kind {
	case TypeDefComposite:
		if name := t.Name(); (name == "AccountId32" || name == "AccountId20") && len(t.Def.Fields) == 1 {
			if n, ok := v.m.byteArrayLen(t.Def.Fields[0].Type); ok {
				raw, err := d.ReadN(n)
				if err != nil {
					return nil, err
				}
				return v.format.Encode(raw), nil
			}
		}
		return v.decodeFields(d, t.Def.Fields)

	case TypeDefVariant:
		idx, err := d.U8()
		if err != nil {
			return nil, err
		}
		var variant *Variant
		for i := range t.Def.Variants {
			if t.Def.Variants[i].Index == idx {
				variant = &t.Def.Variants[i]
				break
			}
		}
		if variant == nil {
			return nil, fmt.Errorf("type %d (%s): unknown variant %d", id, strings.Join(t.Path, "::"), idx)
		}
		if t.Name() == "Option" && len(t.Path) == 1 {
			if len(variant.Fields) == 0 {
				return nil, nil
			}
			return v.decode(d, variant.Fields[0].Type)
		}
		if len(variant.Fields) == 0 {
			return variant.Name, nil
		}
		inner, err := v.decodeFields(d, variant.Fields)
		if err != nil {
			return nil, err
		}
		return map[string]any{variant.Name: inner}, nil

	case TypeDefSequence:
		if v.m.isU8(t.Def.Elem) {
			b, err := d.Bytes()
			if err != nil {
				return nil, err
			}
			return hexutil.Encode(b), nil
		}
		n, err := d.Length()
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, n)
		for i := 0; i < n; i++ {
			e, err := v.decode(d, t.Def.Elem)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil

	case TypeDefArray:
		if v.m.isU8(t.Def.Elem) {
			b, err := d.ReadN(int(t.Def.Len))
			if err != nil {
				return nil, err
			}
			return hexutil.Encode(b), nil
		}
		out := make([]any, 0, t.Def.Len)
		for i := uint32(0); i < t.Def.Len; i++ {
			e, err := v.decode(d, t.Def.Elem)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil

	case TypeDefTuple:
		if len(t.Def.Tuple) == 0 {
			return nil, nil
		}
		out := make([]any, 0, len(t.Def.Tuple))
		for _, e := range t.Def.Tuple {
			val, err := v.decode(d, e)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil

	case TypeDefPrimitive:
		return decodePrimitive(d, t.Def.Primitive)

	case TypeDefCompact:
		n, err := d.CompactBig()
		if err != nil {
			return nil, err
		}
		if n.IsUint64() {
			return n.Uint64(), nil
		}
		if n.BitLen() > 256 {
			return n.String(), nil
		}
		return sdkmath.NewUintFromBigInt(n), nil

	case TypeDefBitSequence:
		size := v.m.primitiveSize(t.Def.BitStore)
		bits, err := d.Compact()
		if err != nil {
			return nil, err
		}
		unit := uint64(size * 8)
		words := (bits + unit - 1) / unit
		b, err := d.ReadN(int(words) * size)
		if err != nil {
			return nil, err
		}
		return hexutil.Encode(b), nil
	}
	return nil, fmt.Errorf("type %d: unsupported definition kind %d", id, t.Def.Kind)
}

func (v *valueDecoder) decodeFields(d *scale.Decoder, fields []Field) (any, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	if fields[0].Name == "" {
		if len(fields) == 1 {
			return v.decode(d, fields[0].Type)
		}
		out := make([]any, 0, len(fields))
		for _, f := range fields {
			val, err := v.decode(d, f.Type)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		val, err := v.decode(d, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		out[f.Name] = val
	}
	return out, nil
}

func decodePrimitive(d *scale.Decoder, p Primitive) (any, error) {
	switch p {
	case PrimBool:
		return d.Bool()
	case PrimChar:
		r, err := d.U32()
		if err != nil {
			return nil, err
		}
		return string(rune(r)), nil
	case PrimStr:
		return d.String()
	case PrimU8:
		return d.U8()
	case PrimU16:
		return d.U16()
	case PrimU32:
		return d.U32()
	case PrimU64:
		return d.U64()
	case PrimU128:
		b, err := d.UintN(16)
		if err != nil {
			return nil, err
		}
		return sdkmath.NewUintFromBigInt(b), nil
	case PrimU256:
		b, err := d.UintN(32)
		if err != nil {
			return nil, err
		}
		u, _ := uint256.FromBig(b)
		return u, nil
	case PrimI8:
		v, err := d.U8()
		return int8(v), err
	case PrimI16:
		v, err := d.U16()
		return int16(v), err
	case PrimI32:
		v, err := d.U32()
		return int32(v), err
	case PrimI64:
		v, err := d.U64()
		return int64(v), err
	case PrimI128, PrimI256:
		n := 16
		if p == PrimI256 {
			n = 32
		}
		b, err := d.UintN(n)
		if err != nil {
			return nil, err
		}
		if b.Bit(n*8-1) == 1 {
			b.Sub(b, new(big.Int).Lsh(big.NewInt(1), uint(n*8)))
		}
		return sdkmath.NewIntFromBigInt(b), nil
	}
	return nil, fmt.Errorf("unsupported primitive %d", p)
}

func (m *Metadata) isU8(id uint32) bool {
	t, ok := m.Types[id]
	return ok && t.Def.Kind == TypeDefPrimitive && t.Def.Primitive == PrimU8
}

// byteArrayLen returns N when id is [u8; N].
func (m *Metadata) byteArrayLen(id uint32) (int, bool) {
	t, ok := m.Types[id]
	if !ok || t.Def.Kind != TypeDefArray || !m.isU8(t.Def.Elem) {
		return 0, false
	}
	return int(t.Def.Len), true
}

func (m *Metadata) primitiveSize(id uint32) int {
	t, ok := m.Types[id]
	if !ok || t.Def.Kind != TypeDefPrimitive {
		return 1
	}
	switch t.Def.Primitive {
	case PrimU16:
		return 2
	case PrimU32:
		return 4
	case PrimU64:
		return 8
	}
	return 1
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// snakeToCamel converts call names like "sell_asset" to "sellAsset".
func snakeToCamel(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return b.String()
}
