package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/triptrack-api/middleware"
	"github.com/LovationAdmin/triptrack-api/models"
	"github.com/LovationAdmin/triptrack-api/services"
	"github.com/LovationAdmin/triptrack-api/utils"
)

const msgTravelerNotFound = "Traveler not found"

// UserHandler serves the admin travelers tab.
type UserHandler struct {
	Users  *services.UserService
	Photos *services.PhotoService
}

func NewUserHandler(users *services.UserService, photos *services.PhotoService) *UserHandler {
	return &UserHandler{Users: users, Photos: photos}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	profile := middleware.GetProfile(c)

	users, err := h.Users.List(c.Request.Context(), profile.OwnerScope())
	if err != nil {
		respondServiceError(c, err, "Failed to load travelers")
		return
	}
	c.JSON(http.StatusOK, users)
}

// CreateUser accepts JSON, or a multipart form with an optional "photo" file.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.UserRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}
	in, err := services.ValidateUserRequest(req)
	if err != nil {
		respondServiceError(c, err, "Failed to create traveler")
		return
	}

	var photo *services.PhotoFile
	if fh, err := c.FormFile("photo"); err == nil {
		file, err := readPhoto(fh)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, "Failed to read the uploaded photo")
			return
		}
		photo = &file
	}

	user, warning, err := h.Photos.CreateUser(c.Request.Context(), middleware.GetProfile(c), in, photo)
	if err != nil {
		respondServiceError(c, err, "Failed to create traveler")
		return
	}
	c.JSON(http.StatusCreated, models.UserResponse{User: user, Warning: warning})
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id", msgTravelerNotFound)
	if !ok {
		return
	}

	var req models.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}
	in, err := services.ValidateUserRequest(req)
	if err != nil {
		respondServiceError(c, err, "Failed to update traveler")
		return
	}

	user, err := h.Users.Update(c.Request.Context(), middleware.GetProfile(c), id, in)
	if err != nil {
		respondServiceError(c, err, "Failed to update traveler")
		return
	}
	c.JSON(http.StatusOK, models.UserResponse{User: user})
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id", msgTravelerNotFound)
	if !ok || !confirmed(c) {
		return
	}

	if err := h.Users.Delete(c.Request.Context(), middleware.GetProfile(c), id); err != nil {
		respondServiceError(c, err, "Failed to delete traveler")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Traveler deleted"})
}

// UploadPhoto replaces a traveler's profile photo.
func (h *UserHandler) UploadPhoto(c *gin.Context) {
	id, ok := pathID(c, "id", msgTravelerNotFound)
	if !ok {
		return
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Please select an image file")
		return
	}
	file, err := readPhoto(fh)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Failed to read the uploaded photo")
		return
	}

	user, err := h.Photos.Replace(c.Request.Context(), middleware.GetProfile(c), id, file)
	if err != nil {
		respondServiceError(c, err, "Failed to upload photo")
		return
	}
	c.JSON(http.StatusOK, models.UserResponse{User: user})
}

func (h *UserHandler) DeletePhoto(c *gin.Context) {
	id, ok := pathID(c, "id", msgTravelerNotFound)
	if !ok {
		return
	}

	user, err := h.Photos.Remove(c.Request.Context(), middleware.GetProfile(c), id)
	if err != nil {
		respondServiceError(c, err, "Failed to remove photo")
		return
	}
	c.JSON(http.StatusOK, models.UserResponse{User: user})
}

var errPhotoUnreadable = errors.New("photo unreadable")

// readPhoto reads at most one byte past the size limit so oversized files are
// still rejected by size.
func readPhoto(fh *multipart.FileHeader) (services.PhotoFile, error) {
	f, err := fh.Open()
	if err != nil {
		return services.PhotoFile{}, errPhotoUnreadable
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, services.MaxPhotoSize+1))
	if err != nil {
		return services.PhotoFile{}, errPhotoUnreadable
	}
	return services.PhotoFile{Filename: fh.Filename, Data: data}, nil
}
