package entity

import "time"

// DbSetting is a key-value configuration row.
type DbSetting struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Key         string    `gorm:"column:key;type:varchar(100);uniqueIndex;not null" json:"key"`
	Value       string    `gorm:"column:value;type:text" json:"value"`
	DataType    string    `gorm:"column:data_type;type:varchar(20);not null;default:string" json:"data_type"`
	Description string    `gorm:"column:description;type:text" json:"description"`
}

func (DbSetting) TableName() string {
	return "settings"
}

type SettingUpsertRequest struct {
	Key         string `json:"key" binding:"required"`
	Value       string `json:"value"`
	DataType    string `json:"data_type"`
	Description string `json:"description"`
}
