package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type News struct {
	gorm.Model
	Title    string         `json:"title" binding:"required"`
	Category string         `json:"category"`
	Content  string         `json:"content"`
	ImageUrl string         `json:"imageUrl"`
	Tags     datatypes.JSON `json:"tags"`
	Date     string         `json:"date"`
}
