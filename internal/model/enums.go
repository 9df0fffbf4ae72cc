package model

import "strings"

// Role is the canonical role of a user account.  The stored and returned
// spellings are the ones the front office has always used; English aliases
// are accepted on input.
type Role string

const (
	RoleUser          Role = "Usuario"
	RoleTeacher       Role = "Profesor"
	RoleAdministrator Role = "Administrador"
	RoleClient        Role = "cliente"
	RoleFamily        Role = "familiar"
	RoleOther         Role = "otro"
)

var roleAliases = map[string]Role{
	"usuario":       RoleUser,
	"user":          RoleUser,
	"profesor":      RoleTeacher,
	"teacher":       RoleTeacher,
	"administrador": RoleAdministrator,
	"administrator": RoleAdministrator,
	"admin":         RoleAdministrator,
	"cliente":       RoleClient,
	"client":        RoleClient,
	"familiar":      RoleFamily,
	"family":        RoleFamily,
	"otro":          RoleOther,
	"other":         RoleOther,
}

// ParseRole maps any accepted spelling to its canonical Role.
func ParseRole(s string) (Role, bool) {
	r, ok := roleAliases[foldKey(s)]
	return r, ok
}

// ClientRoles are the roles listed by the clients endpoints.
var ClientRoles = []Role{RoleClient, RoleFamily}

// IsClientRole reports whether a user with this role is managed through the
// clients endpoints.
func (r Role) IsClientRole() bool {
	return r == RoleClient || r == RoleFamily || r == RoleOther
}

// UserStatus tells whether an account may sign in.
type UserStatus string

const (
	UserActive   UserStatus = "Activo"
	UserInactive UserStatus = "Inactivo"
)

var userStatusAliases = map[string]UserStatus{
	"activo":   UserActive,
	"active":   UserActive,
	"inactivo": UserInactive,
	"inactive": UserInactive,
}

func ParseUserStatus(s string) (UserStatus, bool) {
	st, ok := userStatusAliases[foldKey(s)]
	return st, ok
}

// PlanType is the billing period of a membership plan.
type PlanType string

const (
	PlanMonthly   PlanType = "mensual"
	PlanPerClass  PlanType = "por_clase"
	PlanQuarterly PlanType = "trimestral"
	PlanAnnual    PlanType = "anual"
)

var planTypeAliases = map[string]PlanType{
	"mensual":    PlanMonthly,
	"monthly":    PlanMonthly,
	"por_clase":  PlanPerClass,
	"por clase":  PlanPerClass,
	"per_class":  PlanPerClass,
	"per-class":  PlanPerClass,
	"trimestral": PlanQuarterly,
	"quarterly":  PlanQuarterly,
	"anual":      PlanAnnual,
	"annual":     PlanAnnual,
}

func ParsePlanType(s string) (PlanType, bool) {
	t, ok := planTypeAliases[foldKey(s)]
	return t, ok
}

// Weekday is the day a class is held on.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var weekdayAliases = map[string]Weekday{
	"monday": Monday, "lunes": Monday,
	"tuesday": Tuesday, "martes": Tuesday,
	"wednesday": Wednesday, "miercoles": Wednesday,
	"thursday": Thursday, "jueves": Thursday,
	"friday": Friday, "viernes": Friday,
	"saturday": Saturday, "sabado": Saturday,
	"sunday": Sunday, "domingo": Sunday,
}

func ParseWeekday(s string) (Weekday, bool) {
	d, ok := weekdayAliases[foldKey(s)]
	return d, ok
}

// Gender is an optional client attribute.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

var genderAliases = map[string]Gender{
	"m": GenderMale, "masculino": GenderMale, "male": GenderMale,
	"f": GenderFemale, "femenino": GenderFemale, "female": GenderFemale,
	"o": GenderOther, "otro": GenderOther, "other": GenderOther,
}

func ParseGender(s string) (Gender, bool) {
	g, ok := genderAliases[foldKey(s)]
	return g, ok
}

// MembershipStatus is the lifecycle state of an ActiveMembership.
type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "active"
	MembershipInactive MembershipStatus = "inactive"
	MembershipExpired  MembershipStatus = "expired"
)

var membershipStatusAliases = map[string]MembershipStatus{
	"active": MembershipActive, "activa": MembershipActive,
	"inactive": MembershipInactive, "inactiva": MembershipInactive,
	"expired": MembershipExpired, "vencida": MembershipExpired,
}

func ParseMembershipStatus(s string) (MembershipStatus, bool) {
	st, ok := membershipStatusAliases[foldKey(s)]
	return st, ok
}

var accentFolder = strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u")

// foldKey lower-cases, trims and strips Spanish accents so that "Miércoles"
// and "miercoles" resolve to the same alias.
func foldKey(s string) string {
	return accentFolder.Replace(strings.ToLower(strings.TrimSpace(s)))
}
