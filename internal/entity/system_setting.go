package entity

import "time"

const SettingRedemptionEnabled = "redemption_enabled"

type SystemSetting struct {
	Key   string `gorm:"primarykey;size:64"`
	Value string
}

type Migration struct {
	Version   string `gorm:"primarykey;size:16"`
	CreatedAt time.Time
}
