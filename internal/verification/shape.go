package verification

import "jawara/pkg/types"

// Kind tells the three request shapes apart.
type Kind string

const (
	// KindRegistration creates a resident for an account that has none.
	KindRegistration Kind = "registration"
	// KindUpdate changes the NIK or name of the account's own resident.
	KindUpdate Kind = "update"
	// KindAssignment binds the account to an existing resident nobody owns.
	KindAssignment Kind = "assignment"
)

// Shape is a request shape. NIK is the resident the request targets and is
// empty for a registration.
type Shape struct {
	Kind Kind
	NIK  string
}

func NewRegistration() Shape {
	return Shape{Kind: KindRegistration}
}

func NewUpdate(nik string) Shape {
	return Shape{Kind: KindUpdate, NIK: nik}
}

func NewAssignment(nik string) Shape {
	return Shape{Kind: KindAssignment, NIK: nik}
}

// ShapeFor classifies a new submission from the account's current resident
// (nil if none) and the resident already holding the proposed NIK (nil if
// none). A holder owned by another account does not change the shape: that
// collision is settled at approval.
func ShapeFor(own, holder *types.Warga) Shape {
	if own != nil {
		return NewUpdate(own.NIK)
	}
	if holder != nil && !holder.HasOwner() {
		return NewAssignment(holder.NIK)
	}
	return NewRegistration()
}

// ShapeOf recovers the shape of a stored request. target is the resident
// referenced by req.WargaID, or nil when it is unset or gone. Precedence:
// assignment, then registration, then update.
func ShapeOf(req *types.VerificationRequest, target *types.Warga) Shape {
	if req.WargaID != nil && (req.ExtraData.IsAssignmentRequest || (target != nil && !target.HasOwner())) {
		return NewAssignment(*req.WargaID)
	}
	if req.WargaID == nil {
		return NewRegistration()
	}
	return NewUpdate(*req.WargaID)
}

// Flags returns the payload flags persisted for the shape.
func (s Shape) Flags() (isNewRegistration, isAssignmentRequest bool) {
	return s.Kind == KindRegistration, s.Kind == KindAssignment
}

// WargaID is the value stored in verification_warga.warga_id.
func (s Shape) WargaID() *string {
	if s.Kind == KindRegistration {
		return nil
	}
	nik := s.NIK
	return &nik
}
