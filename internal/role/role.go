// Package role defines the closed set of account roles and the per-role session and login policy.
package role

import "strings"

// Role is an account role within a school tenant.
type Role string

const (
	// SuperAdmin is the platform operator role; it is not bound to a device.
	SuperAdmin Role = "super_admin"
	// SchoolAdmin administers one school and receives its security alerts.
	SchoolAdmin Role = "school_admin"
	// Principal heads one school.
	Principal Role = "principal"
	// Teacher is the field-staff role whose logins are restricted to the school geofence.
	Teacher Role = "teacher"
	Parent  Role = "parent"
	Student Role = "student"
)

// Policy is the session and login policy applied to a role.
type Policy struct {
	// DeviceBound requires every access token to carry a device id with an active session behind it.
	DeviceBound bool
	// SingleDevice allows at most one active session across all devices of the account.
	SingleDevice bool
	// Geofenced requires the login to originate inside the tenant geofence.
	Geofenced bool
	// Oversight marks the role that receives security alerts for its tenant.
	Oversight bool
}

var policies = map[Role]Policy{
	SuperAdmin:  {DeviceBound: false},
	SchoolAdmin: {DeviceBound: true, SingleDevice: true, Oversight: true},
	Principal:   {DeviceBound: true, SingleDevice: true},
	Teacher:     {DeviceBound: true, SingleDevice: true, Geofenced: true},
	Parent:      {DeviceBound: true},
	Student:     {DeviceBound: true},
}

// All returns every known role in a stable order.
func All() []Role {
	return []Role{SuperAdmin, SchoolAdmin, Principal, Teacher, Parent, Student}
}

// Parse returns the role named by s (case-insensitive) and whether it is known.
func Parse(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := policies[r]
	return r, ok
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := policies[r]
	return ok
}

// Policy returns the policy for r. Unknown roles get the most restrictive device-bound policy
// without geofencing, so a malformed role can never skip session validation.
func (r Role) Policy() Policy {
	if p, ok := policies[r]; ok {
		return p
	}
	return Policy{DeviceBound: true, SingleDevice: true}
}

// OversightRole returns the role that is alerted about security events in a tenant.
func OversightRole() Role {
	for _, r := range All() {
		if policies[r].Oversight {
			return r
		}
	}
	return SchoolAdmin
}

func (r Role) String() string { return string(r) }
