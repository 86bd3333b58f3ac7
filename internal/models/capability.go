package models

// Capability is a named action a member may perform. Every entry point
// into the fan-out and reconciliation engines consults CapabilitiesFor
// instead of checking roles ad hoc.
type Capability string

const (
	CapApproveFamily          Capability = "approve_family"
	CapApproveMember          Capability = "approve_member"
	CapCreateFamily           Capability = "create_family"
	CapDeleteFamily           Capability = "delete_family"
	CapCreateContributionType Capability = "create_contribution_type"
	CapLogPayment             Capability = "log_payment"
	CapCancelObligation       Capability = "cancel_obligation"
	CapManageMembers          Capability = "manage_members"
	CapManageDocuments        Capability = "manage_documents"
	CapManageMeetings         Capability = "manage_meetings"
)

// CapabilitySet is the set of actions resolved for one member.
type CapabilitySet map[Capability]bool

// Has reports whether the set grants the capability.
func (cs CapabilitySet) Has(c Capability) bool {
	return cs[c]
}

// CapabilitiesFor maps (role, staff) to the set of permitted actions.
// Staff accounts hold every capability. Executives manage contribution
// types, documents, meetings and the member roster; the executive ranks
// above family leader also approve families and members, and the
// treasurer additionally settles payments. Family leaders may propose
// new families, which start pending approval.
func CapabilitiesFor(role Role, isStaff bool) CapabilitySet {
	caps := CapabilitySet{}

	if isStaff {
		for _, c := range []Capability{
			CapApproveFamily, CapApproveMember, CapCreateFamily, CapDeleteFamily,
			CapCreateContributionType, CapLogPayment, CapCancelObligation,
			CapManageMembers, CapManageDocuments, CapManageMeetings,
		} {
			caps[c] = true
		}
		return caps
	}

	if role.IsExecutive() {
		caps[CapCreateFamily] = true
		caps[CapCreateContributionType] = true
		caps[CapManageMembers] = true
		caps[CapManageDocuments] = true
		caps[CapManageMeetings] = true
		if role != RoleFamilyLeader {
			caps[CapApproveFamily] = true
			caps[CapApproveMember] = true
		}
	}

	if role == RoleTreasurer {
		caps[CapLogPayment] = true
	}

	return caps
}
