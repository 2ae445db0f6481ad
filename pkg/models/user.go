package models

// Project roles carried in the token's roles claim.
const (
	RoleAdmin = "admin"
	RoleData  = "data"
	RoleUser  = "user"
)

// ImportRoles may run imports that write to a project's datastore.
// RoleUser may analyze files and read import history only.
var ImportRoles = []string{RoleAdmin, RoleData}
