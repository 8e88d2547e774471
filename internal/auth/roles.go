package auth

// Role represents a capability granted to a caller.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleRewardProvider Role = "reward_provider"
)

// RoleChecker is the access-control collaborator consulted by engine guards.
// It answers capability questions only; identity management lives elsewhere.
type RoleChecker interface {
	HasAdminRole(caller string) bool
	HasRewardProviderRole(caller string) bool
}

// StaticRoles is a map-backed RoleChecker configured at startup.
type StaticRoles struct {
	roles map[string]map[Role]bool
}

func NewStaticRoles() *StaticRoles {
	return &StaticRoles{roles: map[string]map[Role]bool{}}
}

func (s *StaticRoles) Grant(caller string, role Role) *StaticRoles {
	if s.roles[caller] == nil {
		s.roles[caller] = map[Role]bool{}
	}
	s.roles[caller][role] = true
	return s
}

func (s *StaticRoles) HasAdminRole(caller string) bool {
	return s.roles[caller][RoleAdmin]
}

func (s *StaticRoles) HasRewardProviderRole(caller string) bool {
	return s.roles[caller][RoleRewardProvider]
}
