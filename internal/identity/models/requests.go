package models

import (
	"strings"

	id "samved/pkg/domain"
	dErrors "samved/pkg/domain-errors"
	"samved/pkg/email"
)

// CreateAccountRequest is the administrative direct-create payload.
type CreateAccountRequest struct {
	Role          string `json:"role"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Phone         string `json:"phone"`
	InstituteCode string `json:"institute_code"`
	InstituteName string `json:"institute_name"`
	District      string `json:"district"`
	State         string `json:"state"`
}

// creatableRoles are the roles an administrator may create directly.
// Participants only come into existence through promotion.
var creatableRoles = map[id.Role]bool{
	id.RoleAdmin:  true,
	id.RoleJudge:  true,
	id.RoleMentor: true,
	id.RoleSPOC:   true,
}

func (r *CreateAccountRequest) Normalize() {
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.InstituteCode = id.NormalizeInstituteCode(r.InstituteCode).String()
	r.InstituteName = strings.TrimSpace(r.InstituteName)
	r.District = strings.TrimSpace(r.District)
	r.State = strings.TrimSpace(r.State)
}

func (r *CreateAccountRequest) Validate() error {
	role, err := id.ParseRole(r.Role)
	if err != nil || !creatableRoles[role] {
		return dErrors.New(dErrors.CodeValidation, "role must be one of admin, judge, mentor, spoc")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if !email.Valid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	if len(r.Password) < 8 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	if role != id.RoleAdmin && r.InstituteName == "" {
		return dErrors.New(dErrors.CodeValidation, "institute name is required")
	}
	if role.IsSingleOccupancy() && r.InstituteCode == "" {
		return dErrors.New(dErrors.CodeValidation, "institute code is required")
	}
	return nil
}
