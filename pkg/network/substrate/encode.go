// pkg/network/substrate/encode.go
package substrate

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/altuslabsxyz/txconfirm/pkg/network/scale"
)

// FindCall looks up a call by pallet and call name. Names match
// case-insensitively and calls may be given in snake_case or camelCase.
func (m *Metadata) FindCall(pallet, call string) (uint8, *Variant, error) {
	var p *Pallet
	for _, candidate := range m.Pallets {
		if strings.EqualFold(candidate.Name, pallet) {
			p = candidate
			break
		}
	}
	if p == nil {
		return 0, nil, &NotFoundError{Resource: fmt.Sprintf("pallet %s", pallet)}
	}
	if p.Calls == nil {
		return 0, nil, &NotFoundError{Resource: fmt.Sprintf("calls of pallet %s", p.Name)}
	}
	t, err := m.Type(*p.Calls)
	if err != nil {
		return 0, nil, err
	}
	want := strings.ToLower(snakeToCamel(call))
	for i := range t.Def.Variants {
		v := &t.Def.Variants[i]
		if strings.ToLower(snakeToCamel(v.Name)) == want {
			return p.Index, v, nil
		}
	}
	return 0, nil, &NotFoundError{Resource: fmt.Sprintf("call %s::%s", p.Name, call)}
}

// EncodeCall builds an encoded call from string arguments, one per call field.
func (m *Metadata) EncodeCall(pallet, call string, args []string, format AddressFormat) ([]byte, error) {
	pIdx, v, err := m.FindCall(pallet, call)
	if err != nil {
		return nil, err
	}
	if len(args) != len(v.Fields) {
		names := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			names[i] = fmt.Sprintf("%s: %s", f.Name, f.TypeName)
		}
		return nil, fmt.Errorf("%s::%s expects %d args (%s), got %d",
			pallet, v.Name, len(v.Fields), strings.Join(names, ", "), len(args))
	}

	var e scale.Encoder
	e.PutU8(pIdx)
	e.PutU8(v.Index)
	for i, f := range v.Fields {
		if err := m.encodeArg(&e, f.Type, args[i], format, 0); err != nil {
			return nil, fmt.Errorf("arg %s: %w", f.Name, err)
		}
	}
	return e.Bytes(), nil
}

func (m *Metadata) encodeArg(e *scale.Encoder, id uint32, arg string, format AddressFormat, depth int) error {
	if depth > maxDecodeDepth {
		return fmt.Errorf("type %d: nesting too deep", id)
	}
	t, err := m.Type(id)
	if err != nil {
		return err
	}

	switch t.Def.Kind {
	case TypeDefComposite:
		if name := t.Name(); (name == "AccountId32" || name == "AccountId20") && len(t.Def.Fields) == 1 {
			raw, err := format.Decode(arg)
			if err != nil {
				return err
			}
			if n, ok := m.byteArrayLen(t.Def.Fields[0].Type); ok && n != len(raw) {
				return fmt.Errorf("account id must be %d bytes, got %d", n, len(raw))
			}
			e.PutRaw(raw)
			return nil
		}
		if len(t.Def.Fields) == 1 {
			return m.encodeArg(e, t.Def.Fields[0].Type, arg, format, depth+1)
		}
		if len(t.Def.Fields) == 0 {
			return nil
		}

	case TypeDefVariant:
		if t.Name() == "Option" && len(t.Path) == 1 {
			switch strings.ToLower(arg) {
			case "", "none", "null":
				e.PutU8(0)
				return nil
			}
			for _, v := range t.Def.Variants {
				if len(v.Fields) == 1 {
					e.PutU8(v.Index)
					return m.encodeArg(e, v.Fields[0].Type, arg, format, depth+1)
				}
			}
		}
		for _, v := range t.Def.Variants {
			if len(v.Fields) == 0 && strings.EqualFold(v.Name, arg) {
				e.PutU8(v.Index)
				return nil
			}
		}
		// MultiAddress and similar lookups accept a bare account.
		for _, v := range t.Def.Variants {
			if v.Name == "Id" && len(v.Fields) == 1 {
				if _, err := format.Decode(arg); err == nil {
					e.PutU8(v.Index)
					return m.encodeArg(e, v.Fields[0].Type, arg, format, depth+1)
				}
			}
		}
		return fmt.Errorf("cannot encode %q as %s", arg, strings.Join(t.Path, "::"))

	case TypeDefSequence:
		if m.isU8(t.Def.Elem) {
			if strings.HasPrefix(arg, "0x") {
				b, err := hexutil.Decode(arg)
				if err != nil {
					return err
				}
				e.PutBytes(b)
				return nil
			}
			e.PutBytes([]byte(arg))
			return nil
		}

	case TypeDefArray:
		if m.isU8(t.Def.Elem) {
			b, err := hexutil.Decode(arg)
			if err != nil {
				return err
			}
			if len(b) != int(t.Def.Len) {
				return fmt.Errorf("expected %d bytes, got %d", t.Def.Len, len(b))
			}
			e.PutRaw(b)
			return nil
		}

	case TypeDefTuple:
		if len(t.Def.Tuple) == 0 {
			return nil
		}

	case TypeDefPrimitive:
		return encodePrimitive(e, t.Def.Primitive, arg)

	case TypeDefCompact:
		n, ok := new(big.Int).SetString(arg, 0)
		if !ok {
			return fmt.Errorf("invalid integer %q", arg)
		}
		return e.PutCompactBig(n)
	}
	return fmt.Errorf("encoding %s (type %d) from a string is not supported", strings.Join(t.Path, "::"), id)
}

func encodePrimitive(e *scale.Encoder, p Primitive, arg string) error {
	switch p {
	case PrimBool:
		b, err := strconv.ParseBool(arg)
		if err != nil {
			return err
		}
		e.PutBool(b)
		return nil
	case PrimStr:
		e.PutString(arg)
		return nil
	case PrimChar:
		r := []rune(arg)
		if len(r) != 1 {
			return fmt.Errorf("expected a single character, got %q", arg)
		}
		e.PutU32(uint32(r[0]))
		return nil
	}

	n, ok := new(big.Int).SetString(arg, 0)
	if !ok {
		return fmt.Errorf("invalid integer %q", arg)
	}
	var size int
	signed := false
	switch p {
	case PrimU8:
		size = 1
	case PrimU16:
		size = 2
	case PrimU32:
		size = 4
	case PrimU64:
		size = 8
	case PrimU128:
		size = 16
	case PrimU256:
		size = 32
	case PrimI8:
		size, signed = 1, true
	case PrimI16:
		size, signed = 2, true
	case PrimI32:
		size, signed = 4, true
	case PrimI64:
		size, signed = 8, true
	case PrimI128:
		size, signed = 16, true
	case PrimI256:
		size, signed = 32, true
	default:
		return fmt.Errorf("unsupported primitive %d", p)
	}
	if signed {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(size*8-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return fmt.Errorf("value %s out of range for i%d", n, size*8)
		}
		if n.Sign() < 0 {
			n = new(big.Int).Add(n, new(big.Int).Lsh(big.NewInt(1), uint(size*8)))
		}
	}
	return e.PutUintN(n, size)
}
