package layout

// Kind is the declared type of a storage field.
//
// Scalar kinds occupy the field's own slot. Mapping kinds use the field's
// slot as a namespace for per-key entries in the map slot table; the root
// slot itself stays unassigned, mirroring how mapping roots reserve a slot
// in conventional contract storage.
type Kind string

const (
	KindUint256    Kind = "uint256"
	KindUint64     Kind = "uint64"
	KindBool       Kind = "bool"
	KindMapUint256 Kind = "map:uint256"
	KindMapUint64  Kind = "map:uint64"
	KindMapBool    Kind = "map:bool"
)

// ValidKinds defines the allowed field kinds.
var ValidKinds = map[Kind]bool{
	KindUint256:    true,
	KindUint64:     true,
	KindBool:       true,
	KindMapUint256: true,
	KindMapUint64:  true,
	KindMapBool:    true,
}

// IsMapping reports whether the kind is a per-key mapping.
func (k Kind) IsMapping() bool {
	return k == KindMapUint256 || k == KindMapUint64 || k == KindMapBool
}

// Field is a named storage field bound permanently to a slot.
type Field struct {
	Name string `json:"name"`
	Slot int    `json:"slot"`
	Kind Kind   `json:"kind"`
}

// Layout is one released version's complete field set.
//
// Fields are ordered by slot, starting at slot 0 with no holes. Gap is the
// number of reserved, still-unassigned slots following the fields.
type Layout struct {
	Version int     `json:"version"`
	Fields  []Field `json:"fields"`
	Gap     int     `json:"gap"`
}

// TotalSlots is the fixed size of the addressable slot region. Every
// released layout must satisfy len(Fields) + Gap == TotalSlots.
const TotalSlots = 32

// Slot assignments. Once a constant is released its value never changes.
const (
	// Version 1: vault ledger.
	SlotInitializedVersion = 0 // uint64: one-shot setup ladder ordinal
	SlotTotalDeposited     = 1 // uint256: sum of all credited balances
	SlotDepositFeeBps      = 2 // uint64: fee in basis points, fixed at init
	SlotBalances           = 3 // map:uint256: principal -> balance
	SlotRoles              = 4 // map:bool: role "\x00" principal -> held

	// Version 2: yield engine.
	SlotYieldRateBps     = 5 // uint64: annual linear yield in basis points
	SlotDepositsPaused   = 6 // bool
	SlotYieldCheckpoints = 7 // map:uint64: principal -> unix seconds

	// Version 3: withdrawal gate.
	SlotWithdrawalDelay = 8  // uint64: seconds between request and execute
	SlotRequestAmounts  = 9  // map:uint256: owner -> requested amount
	SlotRequestTimes    = 10 // map:uint64: owner -> requestedAt
	SlotRequestStates   = 11 // map:uint64: owner -> request state ordinal
)

// V1 returns the version 1 layout.
func V1() Layout {
	return Layout{
		Version: 1,
		Fields: []Field{
			{Name: "initializedVersion", Slot: SlotInitializedVersion, Kind: KindUint64},
			{Name: "totalDeposited", Slot: SlotTotalDeposited, Kind: KindUint256},
			{Name: "depositFeeBps", Slot: SlotDepositFeeBps, Kind: KindUint64},
			{Name: "balances", Slot: SlotBalances, Kind: KindMapUint256},
			{Name: "roles", Slot: SlotRoles, Kind: KindMapBool},
		},
		Gap: 27,
	}
}

// V2 returns the version 2 layout: V1 plus the yield engine fields.
func V2() Layout {
	l := V1()
	l.Version = 2
	l.Fields = append(l.Fields,
		Field{Name: "yieldRateBps", Slot: SlotYieldRateBps, Kind: KindUint64},
		Field{Name: "depositsPaused", Slot: SlotDepositsPaused, Kind: KindBool},
		Field{Name: "yieldCheckpoints", Slot: SlotYieldCheckpoints, Kind: KindMapUint64},
	)
	l.Gap = 24
	return l
}

// V3 returns the version 3 layout: V2 plus the withdrawal gate fields.
func V3() Layout {
	l := V2()
	l.Version = 3
	l.Fields = append(l.Fields,
		Field{Name: "withdrawalDelay", Slot: SlotWithdrawalDelay, Kind: KindUint64},
		Field{Name: "requestAmounts", Slot: SlotRequestAmounts, Kind: KindMapUint256},
		Field{Name: "requestTimes", Slot: SlotRequestTimes, Kind: KindMapUint64},
		Field{Name: "requestStates", Slot: SlotRequestStates, Kind: KindMapUint64},
	)
	l.Gap = 20
	return l
}

// Released returns every released layout in version order.
func Released() []Layout {
	return []Layout{V1(), V2(), V3()}
}

// Latest returns the newest released layout.
func Latest() Layout {
	rel := Released()
	return rel[len(rel)-1]
}

// Doc returns the layout as a plain document for schema export and CUE
// validation.
func (l Layout) Doc() map[string]any {
	fields := make([]any, len(l.Fields))
	for i, f := range l.Fields {
		fields[i] = map[string]any{
			"name": f.Name,
			"slot": f.Slot,
			"kind": string(f.Kind),
		}
	}
	return map[string]any{
		"version": l.Version,
		"gap":     l.Gap,
		"fields":  fields,
	}
}
