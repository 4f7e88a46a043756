package passes

import (
	"encoding/binary"

	"github.com/segmentio/ksuid"

	"vtilcore/internal/expr"
	"vtilcore/internal/ir"
)

// regKSUID deterministically maps a register's (type, id) identity to a
// KSUID so that two expr.Variable leaves built from the same register
// within SymbolicRewrite's per-instruction lowering compare structurally
// equal (uid.ID equality is the KSUID, regardless of name). Width is
// intentionally excluded, matching RegisterDescriptor
// itself treating width as a separate, non-identity-bearing field.
func regKSUID(reg ir.RegisterDescriptor) ksuid.KSUID {
	var b [20]byte
	b[0] = byte(reg.Type)
	binary.BigEndian.PutUint64(b[4:12], reg.ID)
	k, err := ksuid.FromBytes(b[:])
	if err != nil {
		return ksuid.Nil
	}
	return k
}

// regFromVarID recovers the RegisterDescriptor encoded by regKSUID from
// a Variable expression built via operandExpr, used when lowering a
// simplified expression back to an instruction (instructionFor). Since
// the KSUID encoding drops Bitcount, the recovered descriptor's
// Bitcount is the expression's own size, which is the width that
// matters for re-emitting a correctly-sized operand anyway.
func regFromVarID(e expr.Expression) (ir.RegisterDescriptor, bool) {
	id, ok := e.VarID()
	if !ok {
		return ir.RegisterDescriptor{}, false
	}
	raw := id.Value().Bytes()
	if len(raw) != 20 {
		return ir.RegisterDescriptor{}, false
	}
	typ := ir.RegisterType(raw[0])
	regID := binary.BigEndian.Uint64(raw[4:12])
	return ir.RegisterDescriptor{Type: typ, ID: regID, Bitcount: uint32(e.Size())}, true
}
