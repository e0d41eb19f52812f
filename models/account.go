package models

import "time"

type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleExpert Role = "expert"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleExpert:
		return true
	}
	return false
}

// OTPPurpose tags the code held in an account's OTP slot so a code issued
// for one flow can never satisfy the other.
type OTPPurpose string

const (
	OTPEmailVerification OTPPurpose = "email_verification"
	OTPPasswordReset     OTPPurpose = "password_reset"
)

// Account is the credential record. The OTP columns form a single slot:
// all three are nil or all three are set.
type Account struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Name         string      `gorm:"size:255;not null" json:"name"`
	Email        string      `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string      `gorm:"column:password_hash;not null" json:"-"`
	Role         Role        `gorm:"size:16;not null;default:user" json:"role"`
	Verified     bool        `gorm:"not null;default:false" json:"verified"`
	OTPCode      *string     `gorm:"column:otp_code;size:6" json:"-"`
	OTPPurpose   *OTPPurpose `gorm:"column:otp_purpose;size:32" json:"-"`
	OTPExpiresAt *time.Time  `gorm:"column:otp_expires_at;index" json:"-"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`

	Profile *Profile `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}

// HasValidOTP reports whether the slot holds code for purpose and has not
// expired at now. Expiry is exclusive.
func (a *Account) HasValidOTP(purpose OTPPurpose, code string, now time.Time) bool {
	if a.OTPCode == nil || a.OTPPurpose == nil || a.OTPExpiresAt == nil {
		return false
	}
	if *a.OTPPurpose != purpose || *a.OTPCode != code {
		return false
	}
	return now.Before(*a.OTPExpiresAt)
}

// Profile holds the optional account details captured after signup.
type Profile struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	AccountID         uint      `gorm:"uniqueIndex;not null" json:"userId"`
	Phone             string    `gorm:"size:32" json:"phone"`
	Address           string    `json:"address"`
	FarmLocation      Region    `gorm:"size:16" json:"farmLocation"`
	Bio               string    `json:"bio"`
	ProfileImage      string    `json:"profileImage"`
	Skills            string    `json:"skills"`
	YearsOfExperience *int      `json:"yearsOfExperience"`
	Education         string    `json:"education"`
	LicenseImage      string    `json:"licenseImage"`
	IsVerifiedExpert  bool      `gorm:"not null;default:false" json:"isVerifiedExpert"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (Profile) TableName() string {
	return "account_profiles"
}
