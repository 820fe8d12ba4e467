package substrate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/altuslabsxyz/txconfirm/pkg/network/scale"
)

// Type ids of the test runtime.
const (
	tyU8 uint32 = iota
	tyU32
	tyBytes32
	tyAccountID
	tyU128
	tyCompactU128
	tyModuleError
	tyBytes4
	tyDispatchError
	tyDispatchInfo
	tyU64
	tySystemEvent
	tyBalancesEvent
	tyBalancesError
	tyMultiAddress
	tyVecU8
	tyBalancesCall
	tySystemCall
	tySudoCall
	tyRuntimeCall
	tyUncheckedExtrinsic
	tyUnit
	tyCheckNonce
	tyCompactU32
	tyCheckMortality
	tyEra
	tyChargeTxPayment
	tyH256
	tyMetadataHashMode
	tyCheckMetadataHash
	tyOptionBytes32
)

// Pallet indices of the test runtime.
const (
	systemIndex   uint8 = 0
	balancesIndex uint8 = 5
	sudoIndex     uint8 = 7
)

type fieldSpec struct {
	name     string
	typ      uint32
	typeName string
}

type variantSpec struct {
	name   string
	fields []fieldSpec
	index  uint8
	docs   []string
}

func putStrings(e *scale.Encoder, ss []string) {
	e.PutCompact(uint64(len(ss)))
	for _, s := range ss {
		e.PutString(s)
	}
}

func putOptString(e *scale.Encoder, s string) {
	if s == "" {
		e.PutU8(0)
		return
	}
	e.PutU8(1)
	e.PutString(s)
}

func putFields(e *scale.Encoder, fields []fieldSpec) {
	e.PutCompact(uint64(len(fields)))
	for _, f := range fields {
		putOptString(e, f.name)
		e.PutCompact(uint64(f.typ))
		putOptString(e, f.typeName)
		putStrings(e, nil)
	}
}

type typeBuilder struct {
	e     scale.Encoder
	count int
}

func (b *typeBuilder) add(id uint32, path []string, params map[string]uint32, def func(e *scale.Encoder)) {
	b.count++
	b.e.PutCompact(uint64(id))
	putStrings(&b.e, path)
	b.e.PutCompact(uint64(len(params)))
	for _, name := range []string{"Address", "Call", "Signature", "Extra"} {
		if ty, ok := params[name]; ok {
			b.e.PutString(name)
			b.e.PutU8(1)
			b.e.PutCompact(uint64(ty))
		}
	}
	def(&b.e)
	putStrings(&b.e, nil)
}

func primitive(p Primitive) func(e *scale.Encoder) {
	return func(e *scale.Encoder) {
		e.PutU8(uint8(TypeDefPrimitive))
		e.PutU8(uint8(p))
	}
}

func composite(fields ...fieldSpec) func(e *scale.Encoder) {
	return func(e *scale.Encoder) {
		e.PutU8(uint8(TypeDefComposite))
		putFields(e, fields)
	}
}

func variants(vs ...variantSpec) func(e *scale.Encoder) {
	return func(e *scale.Encoder) {
		e.PutU8(uint8(TypeDefVariant))
		e.PutCompact(uint64(len(vs)))
		for _, v := range vs {
			e.PutString(v.name)
			putFields(e, v.fields)
			e.PutU8(v.index)
			putStrings(e, v.docs)
		}
	}
}

func sequence(elem uint32) func(e *scale.Encoder) {
	return func(e *scale.Encoder) {
		e.PutU8(uint8(TypeDefSequence))
		e.PutCompact(uint64(elem))
	}
}

func array(n uint32, elem uint32) func(e *scale.Encoder) {
	return func(e *scale.Encoder) {
		e.PutU8(uint8(TypeDefArray))
		e.PutU32(n)
		e.PutCompact(uint64(elem))
	}
}

func compactOf(elem uint32) func(e *scale.Encoder) {
	return func(e *scale.Encoder) {
		e.PutU8(uint8(TypeDefCompact))
		e.PutCompact(uint64(elem))
	}
}

func unit() func(e *scale.Encoder) {
	return func(e *scale.Encoder) {
		e.PutU8(uint8(TypeDefTuple))
		e.PutCompact(0)
	}
}

type palletSpec struct {
	name    string
	index   uint8
	storage []string
	calls   *uint32
	event   *uint32
	errors  *uint32
}

func ptr(v uint32) *uint32 { return &v }

func putOptType(e *scale.Encoder, v *uint32) {
	if v == nil {
		e.PutU8(0)
		return
	}
	e.PutU8(1)
	e.PutCompact(uint64(*v))
}

// testMetadataBytes encodes a small V14 runtime with System, Balances and
// Sudo pallets.
func testMetadataBytes() []byte {
	var tb typeBuilder
	tb.add(tyU8, nil, nil, primitive(PrimU8))
	tb.add(tyU32, nil, nil, primitive(PrimU32))
	tb.add(tyBytes32, nil, nil, array(32, tyU8))
	tb.add(tyAccountID, []string{"sp_core", "crypto", "AccountId32"}, nil, composite(fieldSpec{typ: tyBytes32, typeName: "[u8; 32]"}))
	tb.add(tyU128, nil, nil, primitive(PrimU128))
	tb.add(tyCompactU128, nil, nil, compactOf(tyU128))
	tb.add(tyModuleError, []string{"sp_runtime", "ModuleError"}, nil, composite(
		fieldSpec{name: "index", typ: tyU8, typeName: "u8"},
		fieldSpec{name: "error", typ: tyBytes4, typeName: "[u8; 4]"},
	))
	tb.add(tyBytes4, nil, nil, array(4, tyU8))
	tb.add(tyDispatchError, []string{"sp_runtime", "DispatchError"}, nil, variants(
		variantSpec{name: "Other", index: 0},
		variantSpec{name: "CannotLookup", index: 1},
		variantSpec{name: "BadOrigin", index: 2},
		variantSpec{name: "Module", index: 3, fields: []fieldSpec{{typ: tyModuleError, typeName: "ModuleError"}}},
	))
	tb.add(tyDispatchInfo, []string{"frame_support", "dispatch", "DispatchInfo"}, nil, composite(
		fieldSpec{name: "weight", typ: tyU64, typeName: "Weight"},
	))
	tb.add(tyU64, nil, nil, primitive(PrimU64))
	tb.add(tySystemEvent, []string{"frame_system", "pallet", "Event"}, nil, variants(
		variantSpec{name: "ExtrinsicSuccess", index: 0, docs: []string{"An extrinsic completed successfully."},
			fields: []fieldSpec{{name: "dispatch_info", typ: tyDispatchInfo, typeName: "DispatchInfo"}}},
		variantSpec{name: "ExtrinsicFailed", index: 1, docs: []string{"An extrinsic failed."},
			fields: []fieldSpec{
				{name: "dispatch_error", typ: tyDispatchError, typeName: "DispatchError"},
				{name: "dispatch_info", typ: tyDispatchInfo, typeName: "DispatchInfo"},
			}},
	))
	tb.add(tyBalancesEvent, []string{"pallet_balances", "pallet", "Event"}, nil, variants(
		variantSpec{name: "Transfer", index: 0, docs: []string{"Transfer succeeded."},
			fields: []fieldSpec{
				{name: "from", typ: tyAccountID, typeName: "T::AccountId"},
				{name: "to", typ: tyAccountID, typeName: "T::AccountId"},
				{name: "amount", typ: tyU128, typeName: "T::Balance"},
			}},
	))
	tb.add(tyBalancesError, []string{"pallet_balances", "pallet", "Error"}, nil, variants(
		variantSpec{name: "VestingBalance", index: 0, docs: []string{"Vesting balance too high to send value."}},
		variantSpec{name: "InsufficientBalance", index: 1, docs: []string{"Balance too low to send value."}},
	))
	tb.add(tyMultiAddress, []string{"sp_runtime", "multiaddress", "MultiAddress"}, nil, variants(
		variantSpec{name: "Id", index: 0, fields: []fieldSpec{{typ: tyAccountID, typeName: "AccountId"}}},
		variantSpec{name: "Raw", index: 3, fields: []fieldSpec{{typ: tyVecU8, typeName: "Vec<u8>"}}},
	))
	tb.add(tyVecU8, nil, nil, sequence(tyU8))
	tb.add(tyBalancesCall, []string{"pallet_balances", "pallet", "Call"}, nil, variants(
		variantSpec{name: "transfer_allow_death", index: 0, fields: []fieldSpec{
			{name: "dest", typ: tyMultiAddress, typeName: "AccountIdLookupOf<T>"},
			{name: "value", typ: tyCompactU128, typeName: "T::Balance"},
		}},
	))
	tb.add(tySystemCall, []string{"frame_system", "pallet", "Call"}, nil, variants(
		variantSpec{name: "remark", index: 0, fields: []fieldSpec{{name: "remark", typ: tyVecU8, typeName: "Vec<u8>"}}},
	))
	tb.add(tySudoCall, []string{"pallet_sudo", "pallet", "Call"}, nil, variants(
		variantSpec{name: "sudo", index: 0, fields: []fieldSpec{{name: "call", typ: tyRuntimeCall, typeName: "Box<<T as Config>::RuntimeCall>"}}},
	))
	tb.add(tyRuntimeCall, []string{"test_runtime", "RuntimeCall"}, nil, variants(
		variantSpec{name: "System", index: systemIndex, fields: []fieldSpec{{typ: tySystemCall}}},
		variantSpec{name: "Balances", index: balancesIndex, fields: []fieldSpec{{typ: tyBalancesCall}}},
		variantSpec{name: "Sudo", index: sudoIndex, fields: []fieldSpec{{typ: tySudoCall}}},
	))
	tb.add(tyUncheckedExtrinsic, []string{"sp_runtime", "generic", "unchecked_extrinsic", "UncheckedExtrinsic"},
		map[string]uint32{"Address": tyMultiAddress, "Call": tyRuntimeCall}, composite(fieldSpec{typ: tyVecU8}))
	tb.add(tyUnit, nil, nil, unit())
	tb.add(tyCheckNonce, []string{"frame_system", "extensions", "check_nonce", "CheckNonce"}, nil,
		composite(fieldSpec{typ: tyCompactU32, typeName: "T::Nonce"}))
	tb.add(tyCompactU32, nil, nil, compactOf(tyU32))
	tb.add(tyCheckMortality, []string{"frame_system", "extensions", "check_mortality", "CheckMortality"}, nil,
		composite(fieldSpec{typ: tyEra, typeName: "Era"}))
	tb.add(tyEra, []string{"sp_runtime", "generic", "era", "Era"}, nil, variants(
		variantSpec{name: "Immortal", index: 0},
		variantSpec{name: "Mortal1", index: 1, fields: []fieldSpec{{typ: tyU8}}},
	))
	tb.add(tyChargeTxPayment, []string{"pallet_transaction_payment", "ChargeTransactionPayment"}, nil,
		composite(fieldSpec{typ: tyCompactU128, typeName: "BalanceOf<T>"}))
	tb.add(tyH256, []string{"primitive_types", "H256"}, nil, composite(fieldSpec{typ: tyBytes32, typeName: "[u8; 32]"}))
	tb.add(tyMetadataHashMode, []string{"frame_metadata_hash_extension", "Mode"}, nil, variants(
		variantSpec{name: "Disabled", index: 0},
		variantSpec{name: "Enabled", index: 1},
	))
	tb.add(tyCheckMetadataHash, []string{"frame_metadata_hash_extension", "CheckMetadataHash"}, nil,
		composite(fieldSpec{name: "mode", typ: tyMetadataHashMode, typeName: "Mode"}))
	tb.add(tyOptionBytes32, []string{"Option"}, nil, variants(
		variantSpec{name: "None", index: 0},
		variantSpec{name: "Some", index: 1, fields: []fieldSpec{{typ: tyBytes32}}},
	))

	var e scale.Encoder
	e.PutU32(metadataMagic)
	e.PutU8(MetadataVersion)
	e.PutCompact(uint64(tb.count))
	e.PutRaw(tb.e.Bytes())

	pallets := []palletSpec{
		{name: "System", index: systemIndex, storage: []string{"Account", "Events"}, calls: ptr(tySystemCall), event: ptr(tySystemEvent)},
		{name: "Balances", index: balancesIndex, calls: ptr(tyBalancesCall), event: ptr(tyBalancesEvent), errors: ptr(tyBalancesError)},
		{name: "Sudo", index: sudoIndex, calls: ptr(tySudoCall)},
	}
	e.PutCompact(uint64(len(pallets)))
	for _, p := range pallets {
		e.PutString(p.name)
		if p.storage == nil {
			e.PutU8(0)
		} else {
			e.PutU8(1)
			e.PutString(p.name)
			e.PutCompact(uint64(len(p.storage)))
			for _, entry := range p.storage {
				e.PutString(entry)
				e.PutU8(0)                 // modifier
				e.PutU8(0)                 // plain
				e.PutCompact(uint64(tyU8)) // value type
				e.PutBytes(nil)            // default
				putStrings(&e, nil)
			}
		}
		putOptType(&e, p.calls)
		putOptType(&e, p.event)
		e.PutCompact(0) // constants
		putOptType(&e, p.errors)
		e.PutU8(p.index)
	}

	extensions := []struct {
		id             string
		ty, additional uint32
	}{
		{"CheckNonZeroSender", tyUnit, tyUnit},
		{"CheckSpecVersion", tyUnit, tyU32},
		{"CheckTxVersion", tyUnit, tyU32},
		{"CheckGenesis", tyUnit, tyH256},
		{"CheckMortality", tyCheckMortality, tyH256},
		{"CheckNonce", tyCheckNonce, tyUnit},
		{"CheckWeight", tyUnit, tyUnit},
		{"ChargeTransactionPayment", tyChargeTxPayment, tyUnit},
		{"CheckMetadataHash", tyCheckMetadataHash, tyOptionBytes32},
	}
	e.PutCompact(uint64(tyUncheckedExtrinsic))
	e.PutU8(4)
	e.PutCompact(uint64(len(extensions)))
	for _, ext := range extensions {
		e.PutString(ext.id)
		e.PutCompact(uint64(ext.ty))
		e.PutCompact(uint64(ext.additional))
	}
	e.PutCompact(uint64(tyUnit)) // runtime type
	return e.Bytes()
}

func testMetadata(t *testing.T) *Metadata {
	t.Helper()
	m, err := DecodeMetadata(testMetadataBytes())
	require.NoError(t, err)
	return m
}
