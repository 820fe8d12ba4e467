// pkg/network/substrate/metadata.go
package substrate

import (
	"fmt"

	"github.com/altuslabsxyz/txconfirm/pkg/network/scale"
)

// metadataMagic is "meta" read as a little-endian u32.
const metadataMagic uint32 = 0x6174656d

// MetadataVersion is the only runtime metadata version decoded here.
const MetadataVersion = 14

// TypeDefKind enumerates scale-info type definitions.
type TypeDefKind uint8

// Type definition kinds in their encoded order.
const (
	TypeDefComposite TypeDefKind = iota
	TypeDefVariant
	TypeDefSequence
	TypeDefArray
	TypeDefTuple
	TypeDefPrimitive
	TypeDefCompact
	TypeDefBitSequence
)

// Primitive enumerates scale-info primitive types.
type Primitive uint8

// Primitive kinds in their encoded order.
const (
	PrimBool Primitive = iota
	PrimChar
	PrimStr
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimU128
	PrimU256
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimI128
	PrimI256
)

// Field is a named or positional field of a composite or variant.
type Field struct {
	Name     string
	Type     uint32
	TypeName string
	Docs     []string
}

// Variant is one case of an enum type.
type Variant struct {
	Name   string
	Fields []Field
	Index  uint8
	Docs   []string
}

// TypeParam is a generic parameter of a type.
type TypeParam struct {
	Name string
	Type *uint32
}

// TypeDef is the shape of a type.
type TypeDef struct {
	Kind      TypeDefKind
	Fields    []Field   // composite
	Variants  []Variant // variant
	Elem      uint32    // sequence, array, compact
	Len       uint32    // array
	Tuple     []uint32  // tuple
	Primitive Primitive // primitive
	BitStore  uint32    // bit sequence
	BitOrder  uint32    // bit sequence
}

// Type is an entry of the portable type registry.
type Type struct {
	ID     uint32
	Path   []string
	Params []TypeParam
	Def    TypeDef
	Docs   []string
}

// Name returns the last path segment, or "" for anonymous types.
func (t *Type) Name() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[len(t.Path)-1]
}

// PalletStorage lists the storage entry names of a pallet.
type PalletStorage struct {
	Prefix  string
	Entries []string
}

// Constant is a pallet constant.
type Constant struct {
	Name  string
	Type  uint32
	Value []byte
	Docs  []string
}

// Pallet is a runtime module.
type Pallet struct {
	Name      string
	Index     uint8
	Storage   *PalletStorage
	Calls     *uint32
	Event     *uint32
	Error     *uint32
	Constants []Constant
}

// SignedExtension describes one signed extension of the extrinsic format.
type SignedExtension struct {
	Identifier       string
	Type             uint32
	AdditionalSigned uint32
}

// ExtrinsicMetadata describes the extrinsic format.
type ExtrinsicMetadata struct {
	Type             uint32
	Version          uint8
	SignedExtensions []SignedExtension
}

// Metadata is decoded V14 runtime metadata.
type Metadata struct {
	Types     map[uint32]*Type
	Pallets   []*Pallet
	Extrinsic ExtrinsicMetadata
	Runtime   uint32

	byIndex    map[uint8]*Pallet
	byName     map[string]*Pallet
	callTypeID *uint32
}

// DecodeMetadata decodes the SCALE bytes returned by state_getMetadata.
func DecodeMetadata(raw []byte) (*Metadata, error) {
	d := scale.NewDecoder(raw)

	magic, err := d.U32()
	if err != nil {
		return nil, fmt.Errorf("metadata magic: %w", err)
	}
	if magic != metadataMagic {
		return nil, fmt.Errorf("metadata magic mismatch: 0x%08x", magic)
	}
	version, err := d.U8()
	if err != nil {
		return nil, fmt.Errorf("metadata version: %w", err)
	}
	if version != MetadataVersion {
		return nil, fmt.Errorf("unsupported metadata version %d (want %d)", version, MetadataVersion)
	}

	m := &Metadata{
		Types:   make(map[uint32]*Type),
		byIndex: make(map[uint8]*Pallet),
		byName:  make(map[string]*Pallet),
	}

	if err := m.decodeTypes(d); err != nil {
		return nil, fmt.Errorf("metadata types: %w", err)
	}
	if err := m.decodePallets(d); err != nil {
		return nil, fmt.Errorf("metadata pallets: %w", err)
	}
	if err := m.decodeExtrinsic(d); err != nil {
		return nil, fmt.Errorf("metadata extrinsic: %w", err)
	}
	if m.Runtime, err = compactU32(d); err != nil {
		return nil, fmt.Errorf("metadata runtime type: %w", err)
	}

	for _, p := range m.Pallets {
		m.byIndex[p.Index] = p
		m.byName[p.Name] = p
	}
	if ext, ok := m.Types[m.Extrinsic.Type]; ok {
		for _, param := range ext.Params {
			if param.Name == "Call" && param.Type != nil {
				id := *param.Type
				m.callTypeID = &id
			}
		}
	}
	return m, nil
}

func compactU32(d *scale.Decoder) (uint32, error) {
	v, err := d.Compact()
	if err != nil {
		return 0, err
	}
	if v > 1<<32-1 {
		return 0, fmt.Errorf("compact %d overflows u32", v)
	}
	return uint32(v), nil
}

func decodeOptionalType(d *scale.Decoder) (*uint32, error) {
	some, err := d.Option()
	if err != nil || !some {
		return nil, err
	}
	v, err := compactU32(d)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeOptionalString(d *scale.Decoder) (string, error) {
	some, err := d.Option()
	if err != nil || !some {
		return "", err
	}
	return d.String()
}

func decodeFields(d *scale.Decoder) ([]Field, error) {
	n, err := d.Length()
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, n)
	for i := 0; i < n; i++ {
		var f Field
		if f.Name, err = decodeOptionalString(d); err != nil {
			return nil, err
		}
		if f.Type, err = compactU32(d); err != nil {
			return nil, err
		}
		if f.TypeName, err = decodeOptionalString(d); err != nil {
			return nil, err
		}
		if f.Docs, err = d.Strings(); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func (m *Metadata) decodeTypes(d *scale.Decoder) error {
	n, err := d.Length()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		t := &Type{}
		if t.ID, err = compactU32(d); err != nil {
			return err
		}
		if t.Path, err = d.Strings(); err != nil {
			return err
		}
		np, err := d.Length()
		if err != nil {
			return err
		}
		for j := 0; j < np; j++ {
			var p TypeParam
			if p.Name, err = d.String(); err != nil {
				return err
			}
			if p.Type, err = decodeOptionalType(d); err != nil {
				return err
			}
			t.Params = append(t.Params, p)
		}
		if err := decodeTypeDef(d, &t.Def); err != nil {
			return fmt.Errorf("type %d: %w", t.ID, err)
		}
		if t.Docs, err = d.Strings(); err != nil {
			return err
		}
		m.Types[t.ID] = t
	}
	return nil
}

func decodeTypeDef(d *scale.Decoder, def *TypeDef) error {
	kind, err := d.U8()
	if err != nil {
		return err
	}
	def.Kind = TypeDefKind(kind)

	switch def.Kind {
	case TypeDefComposite:
		def.Fields, err = decodeFields(d)
		return err
	case TypeDefVariant:
		n, err := d.Length()
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			var v Variant
			if v.Name, err = d.String(); err != nil {
				return err
			}
			if v.Fields, err = decodeFields(d); err != nil {
				return err
			}
			if v.Index, err = d.U8(); err != nil {
				return err
			}
			if v.Docs, err = d.Strings(); err != nil {
				return err
			}
			def.Variants = append(def.Variants, v)
		}
		return nil
	case TypeDefSequence, TypeDefCompact:
		def.Elem, err = compactU32(d)
		return err
	case TypeDefArray:
		if def.Len, err = d.U32(); err != nil {
			return err
		}
		def.Elem, err = compactU32(d)
		return err
	case TypeDefTuple:
		n, err := d.Length()
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			id, err := compactU32(d)
			if err != nil {
				return err
			}
			def.Tuple = append(def.Tuple, id)
		}
		return nil
	case TypeDefPrimitive:
		p, err := d.U8()
		if err != nil {
			return err
		}
		if Primitive(p) > PrimI256 {
			return fmt.Errorf("unknown primitive %d", p)
		}
		def.Primitive = Primitive(p)
		return nil
	case TypeDefBitSequence:
		if def.BitStore, err = compactU32(d); err != nil {
			return err
		}
		def.BitOrder, err = compactU32(d)
		return err
	}
	return fmt.Errorf("unknown type definition kind %d", kind)
}

func (m *Metadata) decodePallets(d *scale.Decoder) error {
	n, err := d.Length()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		p := &Pallet{}
		if p.Name, err = d.String(); err != nil {
			return err
		}
		if p.Storage, err = decodeStorage(d); err != nil {
			return fmt.Errorf("pallet %s storage: %w", p.Name, err)
		}
		if p.Calls, err = decodeOptionalType(d); err != nil {
			return err
		}
		if p.Event, err = decodeOptionalType(d); err != nil {
			return err
		}
		nc, err := d.Length()
		if err != nil {
			return err
		}
		for j := 0; j < nc; j++ {
			var c Constant
			if c.Name, err = d.String(); err != nil {
				return err
			}
			if c.Type, err = compactU32(d); err != nil {
				return err
			}
			if c.Value, err = d.Bytes(); err != nil {
				return err
			}
			if c.Docs, err = d.Strings(); err != nil {
				return err
			}
			p.Constants = append(p.Constants, c)
		}
		if p.Error, err = decodeOptionalType(d); err != nil {
			return err
		}
		if p.Index, err = d.U8(); err != nil {
			return err
		}
		m.Pallets = append(m.Pallets, p)
	}
	return nil
}

func decodeStorage(d *scale.Decoder) (*PalletStorage, error) {
	some, err := d.Option()
	if err != nil || !some {
		return nil, err
	}
	s := &PalletStorage{}
	if s.Prefix, err = d.String(); err != nil {
		return nil, err
	}
	n, err := d.Length()
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		name, err := d.String()
		if err != nil {
			return nil, err
		}
		if _, err := d.U8(); err != nil { // modifier
			return nil, err
		}
		kind, err := d.U8()
		if err != nil {
			return nil, err
		}
		switch kind {
		case 0: // plain
			if _, err := compactU32(d); err != nil {
				return nil, err
			}
		case 1: // map
			nh, err := d.Length()
			if err != nil {
				return nil, err
			}
			if _, err := d.ReadN(nh); err != nil { // hashers, one byte each
				return nil, err
			}
			if _, err := compactU32(d); err != nil {
				return nil, err
			}
			if _, err := compactU32(d); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("entry %s: unknown storage entry type %d", name, kind)
		}
		if _, err := d.Bytes(); err != nil { // default value
			return nil, err
		}
		if _, err := d.Strings(); err != nil {
			return nil, err
		}
		s.Entries = append(s.Entries, name)
	}
	return s, nil
}

func (m *Metadata) decodeExtrinsic(d *scale.Decoder) error {
	var err error
	if m.Extrinsic.Type, err = compactU32(d); err != nil {
		return err
	}
	if m.Extrinsic.Version, err = d.U8(); err != nil {
		return err
	}
	n, err := d.Length()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		var se SignedExtension
		if se.Identifier, err = d.String(); err != nil {
			return err
		}
		if se.Type, err = compactU32(d); err != nil {
			return err
		}
		if se.AdditionalSigned, err = compactU32(d); err != nil {
			return err
		}
		m.Extrinsic.SignedExtensions = append(m.Extrinsic.SignedExtensions, se)
	}
	return nil
}

// Type returns the registry entry for id.
func (m *Metadata) Type(id uint32) (*Type, error) {
	t, ok := m.Types[id]
	if !ok {
		return nil, &NotFoundError{Resource: fmt.Sprintf("type %d", id)}
	}
	return t, nil
}

// PalletByIndex returns the pallet with the given index.
func (m *Metadata) PalletByIndex(idx uint8) (*Pallet, bool) {
	p, ok := m.byIndex[idx]
	return p, ok
}

// PalletByName returns the pallet with the given name.
func (m *Metadata) PalletByName(name string) (*Pallet, bool) {
	p, ok := m.byName[name]
	return p, ok
}

// variant returns the case of enum type id with the given index.
func (m *Metadata) variant(id uint32, idx uint8) (*Variant, error) {
	t, err := m.Type(id)
	if err != nil {
		return nil, err
	}
	if t.Def.Kind != TypeDefVariant {
		return nil, fmt.Errorf("type %d is not an enum", id)
	}
	for i := range t.Def.Variants {
		if t.Def.Variants[i].Index == idx {
			return &t.Def.Variants[i], nil
		}
	}
	return nil, &NotFoundError{Resource: fmt.Sprintf("variant %d of type %d", idx, id)}
}

// IsEmptyType reports whether values of type id encode to zero bytes.
func (m *Metadata) IsEmptyType(id uint32) bool {
	t, ok := m.Types[id]
	if !ok {
		return false
	}
	switch t.Def.Kind {
	case TypeDefComposite:
		for _, f := range t.Def.Fields {
			if !m.IsEmptyType(f.Type) {
				return false
			}
		}
		return true
	case TypeDefTuple:
		for _, e := range t.Def.Tuple {
			if !m.IsEmptyType(e) {
				return false
			}
		}
		return true
	case TypeDefArray:
		return t.Def.Len == 0 || m.IsEmptyType(t.Def.Elem)
	}
	return false
}
