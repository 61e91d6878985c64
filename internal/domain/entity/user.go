package entity

import "time"

type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null;uniqueIndex" json:"email"`
	MobileNo  string    `gorm:"column:mobile_no;not null" json:"mobile_no"`
	Status    *bool     `gorm:"not null;default:true" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// Active reports the status flag, treating an unloaded value as the column default.
func (u User) Active() bool {
	return u.Status == nil || *u.Status
}

// UserPatch holds a partial update. A nil field keeps the stored value.
type UserPatch struct {
	Name     *string
	Email    *string
	MobileNo *string
	Status   *bool
}

func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.MobileNo == nil && p.Status == nil
}

// Columns returns the column assignments for the fields present in the patch.
func (p UserPatch) Columns() map[string]any {
	cols := make(map[string]any, 4)
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Email != nil {
		cols["email"] = *p.Email
	}
	if p.MobileNo != nil {
		cols["mobile_no"] = *p.MobileNo
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	return cols
}
