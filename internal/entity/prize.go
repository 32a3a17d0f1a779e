package entity

type Prize struct {
	Base

	Key   string `gorm:"uniqueIndex;size:64"`
	Label string
	Color string

	Stock        int
	EmittedTotal int
	Active       bool
}
