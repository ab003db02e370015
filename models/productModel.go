package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Product struct {
	gorm.Model
	Title        string         `json:"title" binding:"required"`
	Tagline      string         `json:"tagline"`
	Description  string         `json:"description"`
	Price        int            `json:"price" binding:"required"`
	CountInStock int            `json:"countInStock"`
	ImageUrl     string         `json:"imageUrl"`
	Categories   datatypes.JSON `json:"categories"`
	Tags         datatypes.JSON `json:"tags"`
	Allergens    datatypes.JSON `json:"allergens"`
	ExpiryDate   string         `json:"expiryDate"`
	Content      string         `json:"content"`
	Delivery     string         `json:"delivery"`
	Storage      string         `json:"storage"`
	Ingredients  string         `json:"ingredients"`
	Nutrition    string         `json:"nutrition"`
}
