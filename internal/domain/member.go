package domain

import "github.com/google/uuid"

type MemberRole string

const (
	RoleMember    MemberRole = "member"
	RolePresident MemberRole = "president"
	RoleSecretary MemberRole = "secretary"
	RoleTreasurer MemberRole = "treasurer"
)

// Member is the engine's read-only view of a group user.
type Member struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	ShgGroupID uuid.UUID  `json:"shg_group_id" db:"shg_group_id"`
	Name       string     `json:"name" db:"name"`
	Role       MemberRole `json:"role" db:"role"`
}
