package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
	"github.com/swiftserve/swiftserve-backend/internal/models"
	"gorm.io/gorm"
)

const (
	maxImagesPerUpload = 10
	maxImageSize       = 5 << 20
	// Room for the largest allowed upload plus multipart framing.
	maxUploadBody = maxImagesPerUpload*maxImageSize + 1<<20
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ListGarages shows admins every garage, a garage its own profile and
// everyone else the approved garages a driver can deliver to.
func ListGarages(db *gorm.DB, cache GarageCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		q := db.WithContext(ctx).Preload("Images").Order("name ASC")

		switch {
		case p.IsAdmin():
			if status := c.Query("status"); status != "" {
				q = q.Where("status = ?", status)
			}
		case p.IsGarage():
			q = q.Where("id = ?", p.GarageID)
		default:
			if cache != nil {
				if garages, hit := cache.ApprovedGarages(ctx); hit {
					c.JSON(http.StatusOK, garages)
					return
				}
			}
			q = q.Where("status = ?", models.ApprovalApproved)
		}

		garages := []models.Garage{}
		if err := q.Find(&garages).Error; err != nil {
			respondError(c, err)
			return
		}
		if cache != nil && !p.IsAdmin() && !p.IsGarage() {
			cache.SetApprovedGarages(ctx, garages)
		}
		c.JSON(http.StatusOK, garages)
	}
}

func UploadGarageImages(db *gorm.DB, store ImageStore, cache GarageCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			return
		}
		id, err := parseID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}

		ctx := c.Request.Context()
		var garage models.Garage
		if err := db.WithContext(ctx).First(&garage, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = apperr.NotFound("Garage not found")
			}
			respondError(c, err)
			return
		}
		if !p.IsAdmin() && garage.UserID != p.UserID {
			respondError(c, apperr.Forbidden("You can only upload images for your own garage"))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)
		var files []*multipart.FileHeader
		if form, err := c.MultipartForm(); err == nil {
			files = form.File["images"]
		}
		if err := checkImages(files); err != nil {
			respondError(c, err)
			return
		}

		images := make([]models.GarageImage, 0, len(files))
		for _, fh := range files {
			url, err := store.UploadImage(ctx, fh, fmt.Sprintf("garages/%d", garage.ID))
			if err != nil {
				respondError(c, err)
				return
			}
			images = append(images, models.GarageImage{GarageID: garage.ID, URL: url})
		}
		if err := db.WithContext(ctx).Create(&images).Error; err != nil {
			respondError(c, err)
			return
		}
		if cache != nil {
			cache.InvalidateApprovedGarages(ctx)
		}

		log.WithFields(log.Fields{"garage_id": garage.ID, "count": len(images)}).Info("garage images uploaded")
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("%d images uploaded successfully", len(images)),
			"images":  images,
		})
	}
}

func checkImages(files []*multipart.FileHeader) error {
	if len(files) == 0 {
		return imageError("No images provided")
	}
	if len(files) > maxImagesPerUpload {
		return imageError(fmt.Sprintf("Maximum %d images per upload", maxImagesPerUpload))
	}
	for _, fh := range files {
		ct := fh.Header.Get("Content-Type")
		if !allowedImageTypes[ct] {
			return imageError(fmt.Sprintf("Invalid file type: %s. Allowed: JPEG, PNG, WebP", ct))
		}
		if fh.Size > maxImageSize {
			return imageError(fmt.Sprintf("File %s exceeds 5MB limit", fh.Filename))
		}
	}
	return nil
}

func imageError(msg string) error {
	return apperr.Invalid("images", msg)
}
