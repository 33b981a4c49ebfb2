package models

import (
	"time"

	"github.com/google/uuid"
)

// UserCreate is the payload for creating a user
type UserCreate struct {
	Email                string               `json:"email" binding:"required,email"`
	Password             string               `json:"password" binding:"required,min=8"`
	FirstName            string               `json:"first_name" binding:"required"`
	LastName             string               `json:"last_name" binding:"required"`
	AvatarURL            string               `json:"avatar_url,omitempty" binding:"omitempty,url"`
	Biography            string               `json:"biography,omitempty"`
	Phone                string               `json:"phone,omitempty"`
	RegistrationCategory RegistrationCategory `json:"registration_category,omitempty"`
}

// UserRead is the public view of a user
type UserRead struct {
	UserID               uuid.UUID            `json:"user_id"`
	Email                string               `json:"email"`
	FirstName            string               `json:"first_name"`
	LastName             string               `json:"last_name"`
	AvatarURL            string               `json:"avatar_url,omitempty"`
	Biography            string               `json:"biography,omitempty"`
	Phone                string               `json:"phone,omitempty"`
	RegID                *string              `json:"reg_id"`
	RegistrationCategory RegistrationCategory `json:"registration_category"`
}

// Validity is the optional temporal window attached to a profile link
type Validity struct {
	AssignedAt *time.Time `json:"assigned_at,omitempty"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidTo    *time.Time `json:"valid_to,omitempty"`
}

// UserSkill is a single skill in an update payload
type UserSkill struct {
	SkillName string `json:"skill_name" binding:"required"`
	Validity
}

// UserInterest is a single interest in an update payload
type UserInterest struct {
	InterestName string `json:"interest_name" binding:"required"`
	Validity
}

// UserJobRole is a single job role in an update payload
type UserJobRole struct {
	JobRoleTitle string `json:"job_role_title" binding:"required"`
	Validity
}

// UserCompany is the current company in an update payload
type UserCompany struct {
	CompanyName string `json:"company_name" binding:"required"`
	Validity
}

// UserUpdate is the payload for enriching a user profile
type UserUpdate struct {
	UserID            uuid.UUID      `json:"user_id" binding:"required"`
	UserSkills        []UserSkill    `json:"user_skills,omitempty" binding:"omitempty,dive"`
	UserJobRoles      []UserJobRole  `json:"user_job_roles,omitempty" binding:"omitempty,dive"`
	UserInterests     []UserInterest `json:"user_interests,omitempty" binding:"omitempty,dive"`
	UserCompany       *UserCompany   `json:"user_company,omitempty"`
	Location          string         `json:"location,omitempty"`
	DesiredIndustries []string       `json:"desired_industries,omitempty"`
	Universities      []string       `json:"universities,omitempty"`
	YearsOfExperience *int           `json:"years_of_experience,omitempty" binding:"omitempty,min=0,max=80"`
}

// UserUpdateResult summarises the canonical entities a profile update resolved to
type UserUpdateResult struct {
	UserID    uuid.UUID `json:"user_id"`
	Skills    []string  `json:"skills,omitempty"`
	Interests []string  `json:"interests,omitempty"`
	JobRoles  []string  `json:"job_roles,omitempty"`
	Company   string    `json:"company,omitempty"`
	Location  string    `json:"location,omitempty"`
	Matches   []Match   `json:"matches,omitempty"`
}

// Match records how a free-text profile entry was resolved to a vocabulary entry
type Match struct {
	Kind      VocabularyKind `json:"kind"`
	Input     string         `json:"input"`
	Canonical string         `json:"canonical"`
	Method    string         `json:"method"`
	Created   bool           `json:"created"`
}
