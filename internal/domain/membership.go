package domain

// MemberStatus описывает статус участника канала, который возвращает оракул членства.
type MemberStatus string

const (
	MemberCreator       MemberStatus = "creator"
	MemberAdministrator MemberStatus = "administrator"
	MemberMember        MemberStatus = "member"
	MemberRestricted    MemberStatus = "restricted"
	MemberLeft          MemberStatus = "left"
	MemberKicked        MemberStatus = "kicked"
)

// IsMemberClass сообщает, даёт ли статус доступ к контенту.
func (s MemberStatus) IsMemberClass() bool {
	switch s {
	case MemberCreator, MemberAdministrator, MemberMember:
		return true
	default:
		return false
	}
}
