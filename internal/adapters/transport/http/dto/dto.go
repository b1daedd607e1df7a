package dto

type RegisterDTO struct {
	FullName string `form:"fullname" json:"fullname" validate:"required,notblank"`
	Email    string `form:"email"    json:"email"    validate:"required,notblank,email"`
	Username string `form:"username" json:"username" validate:"required,notblank,alphanum,min=3,max=20"`
	Password string `form:"password" json:"password" validate:"required,notblank,min=8"`
}

// LoginDTO accepts either identity field; at least one must be present.
type LoginDTO struct {
	Email    string `json:"email"    validate:"required_without=Username"`
	Username string `json:"username" validate:"required_without=Email"`
	Password string `json:"password" validate:"required,notblank"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"oldPassword" validate:"required,notblank"`
	NewPassword string `json:"newPassword" validate:"required,notblank,min=8"`
}

type UpdateProfileDTO struct {
	FullName string `json:"fullname" validate:"required,notblank"`
	Email    string `json:"email"    validate:"required,notblank,email"`
}
