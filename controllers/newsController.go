package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kir4che/mern-ecommerce-website-sub000/initializers"
	"github.com/kir4che/mern-ecommerce-website-sub000/models"
)

func CreateNews(ctx *gin.Context) {
	var news models.News
	if err := ctx.ShouldBindJSON(&news); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := initializers.DB.Create(&news).Error; err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to create news", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"news": news})
}

func GetNewsList(ctx *gin.Context) {
	var news []models.News

	query := initializers.DB.Order("created_at desc")
	if category := ctx.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	if result := query.Find(&news); result.Error != nil {
		log.Println(result.Error)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch news")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"news": news})
}

func GetNews(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse news id")
		return
	}

	var news models.News
	if err := initializers.DB.First(&news, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, "News not found")
		} else {
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch news")
		}
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"news": news})
}

func UpdateNews(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse news id")
		return
	}

	var news models.News
	if err := initializers.DB.First(&news, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, "News not found")
		} else {
			sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalError)
		}
		return
	}

	var updates models.News
	if err := ctx.ShouldBindJSON(&updates); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updates.ID = news.ID
	if err := initializers.DB.Model(&news).Updates(updates).Error; err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to update news", err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"news": news})
}

func DeleteNews(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse news id")
		return
	}

	if result := initializers.DB.Delete(&models.News{}, id); result.Error != nil {
		log.Println(result.Error)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to delete news")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "News deleted successfully."})
}
