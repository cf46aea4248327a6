package sdk

import "slices"

// AdminGroup is the directory group whose members get elevated dashboard
// capabilities.
const AdminGroup = "GLO-SEC-HCPE-SETISD"

// User is the profile returned by /api/users/me. The directory attributes are
// only present when the identity service is backed by Active Directory, and
// arrive as lists because that is how LDAP returns them.
type User struct {
	Username string   `json:"username" mapstructure:"username"`
	Groups   []string `json:"groups" mapstructure:"groups"`

	GivenName         []string `json:"givenName,omitempty" mapstructure:"givenName"`
	UserPrincipalName []string `json:"userPrincipalName,omitempty" mapstructure:"userPrincipalName"`
	Title             []string `json:"title,omitempty" mapstructure:"title"`
	Department        []string `json:"department,omitempty" mapstructure:"department"`
	EmployeeNumber    []string `json:"employeeNumber,omitempty" mapstructure:"employeeNumber"`
}

// InGroup reports whether the user is a member of group.
func (u *User) InGroup(group string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Groups, group)
}

// DisplayName returns the first given name when available, falling back to
// the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if len(u.GivenName) > 0 && u.GivenName[0] != "" {
		return u.GivenName[0]
	}
	return u.Username
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Groups = slices.Clone(u.Groups)
	c.GivenName = slices.Clone(u.GivenName)
	c.UserPrincipalName = slices.Clone(u.UserPrincipalName)
	c.Title = slices.Clone(u.Title)
	c.Department = slices.Clone(u.Department)
	c.EmployeeNumber = slices.Clone(u.EmployeeNumber)
	return &c
}
