package entity

import "time"

type AdminRole string

const (
	RoleReader AdminRole = "READER"
	RoleWriter AdminRole = "WRITER"
	RoleDBA    AdminRole = "DBA"
)

// AdminProfile is the locally persisted session record for the logged-in
// admin. Exactly one row exists while a session is active.
type AdminProfile struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	AdminID     string    `gorm:"type:text;not null" json:"adminId"`
	Email       string    `gorm:"type:text;not null" json:"email"`
	Name        string    `gorm:"type:text" json:"name,omitempty"`
	Role        AdminRole `gorm:"type:text" json:"role,omitempty"`
	AccessToken string    `gorm:"type:text" json:"accessToken,omitempty"`
	ExpiresAt   string    `gorm:"type:text" json:"expiresAt,omitempty"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
}

// TableName overrides the table name used by AdminProfile to `admin_profiles`
func (AdminProfile) TableName() string {
	return "admin_profiles"
}

type RegisterInput struct {
	Email    string    `json:"email" validate:"required,email"`
	Password string    `json:"password" validate:"required,min=8,max=64"`
	Role     AdminRole `json:"role" validate:"required,oneof=READER WRITER DBA"`
}
