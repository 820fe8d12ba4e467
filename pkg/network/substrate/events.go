// pkg/network/substrate/events.go
package substrate

import (
	"fmt"

	"github.com/altuslabsxyz/txconfirm/pkg/network"
	"github.com/altuslabsxyz/txconfirm/pkg/network/scale"
)

// DecodeEvents decodes the raw value of System.Events.
func (m *Metadata) DecodeEvents(raw []byte, format AddressFormat) ([]network.EventRecord, error) {
	d := scale.NewDecoder(raw)
	n, err := d.Length()
	if err != nil {
		return nil, fmt.Errorf("event count: %w", err)
	}

	v := &valueDecoder{m: m, format: format}
	records := make([]network.EventRecord, 0, n)
	for i := 0; i < n; i++ {
		rec, err := v.decodeEventRecord(d)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (v *valueDecoder) decodeEventRecord(d *scale.Decoder) (network.EventRecord, error) {
	var rec network.EventRecord

	kind, err := d.U8()
	if err != nil {
		return rec, err
	}
	rec.Phase.Kind = network.PhaseKind(kind)
	switch rec.Phase.Kind {
	case network.PhaseApplyExtrinsic:
		if rec.Phase.Index, err = d.U32(); err != nil {
			return rec, err
		}
	case network.PhaseFinalization, network.PhaseInitialization:
	default:
		return rec, fmt.Errorf("unknown phase %d", kind)
	}

	pIdx, err := d.U8()
	if err != nil {
		return rec, err
	}
	pallet, ok := v.m.PalletByIndex(pIdx)
	if !ok || pallet.Event == nil {
		return rec, &NotFoundError{Resource: fmt.Sprintf("event pallet %d", pIdx)}
	}
	eIdx, err := d.U8()
	if err != nil {
		return rec, err
	}
	variant, err := v.m.variant(*pallet.Event, eIdx)
	if err != nil {
		return rec, fmt.Errorf("pallet %s: %w", pallet.Name, err)
	}

	rec.Section = lowerFirst(pallet.Name)
	rec.Method = variant.Name
	rec.Docs = variant.Docs
	for _, f := range variant.Fields {
		val, err := v.decode(d, f.Type)
		if err != nil {
			return rec, fmt.Errorf("%s.%s field %s: %w", rec.Section, rec.Method, f.Name, err)
		}
		rec.Args = append(rec.Args, network.EventArg{Name: f.Name, TypeName: f.TypeName, Value: val})
	}

	nt, err := d.Length()
	if err != nil {
		return rec, err
	}
	for i := 0; i < nt; i++ {
		b, err := d.ReadN(network.HashLength)
		if err != nil {
			return rec, err
		}
		var h network.Hash
		copy(h[:], b)
		rec.Topics = append(rec.Topics, h)
	}
	return rec, nil
}

// FindError resolves a module error to its name and documentation.
func (m *Metadata) FindError(palletIdx, errorIdx uint8) (*network.MetaError, error) {
	pallet, ok := m.PalletByIndex(palletIdx)
	if !ok {
		return nil, &NotFoundError{Resource: fmt.Sprintf("pallet %d", palletIdx)}
	}
	if pallet.Error == nil {
		return nil, &NotFoundError{Resource: fmt.Sprintf("errors of pallet %s", pallet.Name)}
	}
	v, err := m.variant(*pallet.Error, errorIdx)
	if err != nil {
		return nil, fmt.Errorf("pallet %s: %w", pallet.Name, err)
	}
	return &network.MetaError{Section: lowerFirst(pallet.Name), Name: v.Name, Docs: v.Docs}, nil
}
