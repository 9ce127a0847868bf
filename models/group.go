package models

import (
	"gorm.io/gorm"
)

// GlobalAdmins is the group whose members pass every permission check.
const GlobalAdmins = "globalAdmins"

type Group struct {
	gorm.Model
	Name    string `gorm:"index:,unique"`
	Members []User `gorm:"many2many:user_groups;"`
}
