package models

import "testing"

func TestCapabilitiesFor(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		isStaff bool
		has     []Capability
		lacks   []Capability
	}{
		{
			name:  "plain member has nothing",
			role:  RoleMember,
			lacks: []Capability{CapApproveFamily, CapLogPayment, CapCreateContributionType, CapDeleteFamily},
		},
		{
			name:  "family leader proposes families but approves nothing",
			role:  RoleFamilyLeader,
			has:   []Capability{CapCreateFamily, CapCreateContributionType, CapManageMembers},
			lacks: []Capability{CapApproveFamily, CapApproveMember, CapLogPayment, CapDeleteFamily, CapCancelObligation},
		},
		{
			name:  "treasurer logs payments",
			role:  RoleTreasurer,
			has:   []Capability{CapLogPayment, CapApproveMember, CapCreateContributionType},
			lacks: []Capability{CapDeleteFamily, CapCancelObligation},
		},
		{
			name:  "chairperson without staff cannot delete families",
			role:  RoleChairperson,
			has:   []Capability{CapApproveFamily, CapManageDocuments, CapManageMeetings},
			lacks: []Capability{CapDeleteFamily},
		},
		{
			name:    "staff member holds everything",
			role:    RoleMember,
			isStaff: true,
			has: []Capability{
				CapApproveFamily, CapApproveMember, CapCreateFamily, CapDeleteFamily,
				CapCreateContributionType, CapLogPayment, CapCancelObligation,
				CapManageMembers, CapManageDocuments, CapManageMeetings,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := CapabilitiesFor(tt.role, tt.isStaff)
			for _, c := range tt.has {
				if !caps.Has(c) {
					t.Errorf("CapabilitiesFor(%v, staff=%v) missing %v", tt.role, tt.isStaff, c)
				}
			}
			for _, c := range tt.lacks {
				if caps.Has(c) {
					t.Errorf("CapabilitiesFor(%v, staff=%v) unexpectedly grants %v", tt.role, tt.isStaff, c)
				}
			}
		})
	}
}

func TestRoleIsExecutive(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleMember, false},
		{RoleFamilyLeader, true},
		{RoleSecretary, true},
		{RoleDeputySecretary, true},
		{RoleTreasurer, true},
		{RoleDeputyChairperson, true},
		{RoleChairperson, true},
		{RoleKgosana, true},
	}

	for _, tt := range tests {
		if got := tt.role.IsExecutive(); got != tt.want {
			t.Errorf("%v.IsExecutive() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestDocumentAccessibleBy(t *testing.T) {
	famA := int64(1)
	famB := int64(2)

	clanDoc := &ClanDocument{Visibility: VisibilityClan}
	familyDoc := &ClanDocument{Visibility: VisibilityFamily, FamilyID: &famA}
	privateDoc := &ClanDocument{Visibility: VisibilityPrivate}

	member := &Account{Role: RoleMember, FamilyID: &famA}
	outsider := &Account{Role: RoleMember, FamilyID: &famB}
	chair := &Account{Role: RoleChairperson}
	staff := &Account{Role: RoleMember, IsStaff: true}

	tests := []struct {
		name    string
		doc     *ClanDocument
		account *Account
		want    bool
	}{
		{"clan doc visible to member", clanDoc, member, true},
		{"family doc visible to family member", familyDoc, member, true},
		{"family doc hidden from other family", familyDoc, outsider, false},
		{"private doc hidden from member", privateDoc, member, false},
		{"private doc visible to staff", privateDoc, staff, true},
		{"chairperson sees everything", privateDoc, chair, true},
		{"nil account denied", clanDoc, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.AccessibleBy(tt.account); got != tt.want {
				t.Errorf("AccessibleBy() = %v, want %v", got, tt.want)
			}
		})
	}
}
