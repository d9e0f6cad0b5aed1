package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/LovationAdmin/triptrack-api/models"
	"github.com/LovationAdmin/triptrack-api/storage"
	"github.com/LovationAdmin/triptrack-api/utils"
)

const MaxPhotoSize = 5 << 20

const (
	msgNotAnImage    = "Please select an image file"
	msgPhotoTooLarge = "File size must be less than 5MB"
)

// PhotoFile is an uploaded file read fully into memory.
type PhotoFile struct {
	Filename string
	Data     []byte
}

// PhotoService manages profile photos in the bucket.
type PhotoService struct {
	users  *UserService
	bucket storage.Bucket
	now    func() time.Time
}

func NewPhotoService(users *UserService, bucket storage.Bucket) *PhotoService {
	return &PhotoService{users: users, bucket: bucket, now: time.Now}
}

// ValidatePhoto sniffs the content type and enforces the size limit.
func ValidatePhoto(file PhotoFile) (contentType, ext string, err error) {
	mtype := mimetype.Detect(file.Data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", "", invalid(msgNotAnImage)
	}
	if len(file.Data) > MaxPhotoSize {
		return "", "", invalid(msgPhotoTooLarge)
	}

	ext = strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), ".")
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		ext = strings.TrimPrefix(mtype.Extension(), ".")
	}
	return mtype.String(), ext, nil
}

// upload stores the file as {userId}-{unixMillis}.{ext} and returns its public URL.
func (s *PhotoService) upload(ctx context.Context, userID string, file PhotoFile) (string, error) {
	contentType, ext, err := ValidatePhoto(file)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%d.%s", userID, s.now().UnixMilli(), ext)
	if err := s.bucket.Upload(ctx, name, bytes.NewReader(file.Data), contentType); err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	return s.bucket.PublicURL(name), nil
}

// removeObject deletes the object behind a public URL. Errors are only logged.
func (s *PhotoService) removeObject(ctx context.Context, publicURL string) {
	if publicURL == "" {
		return
	}
	if err := s.bucket.Remove(ctx, storage.ObjectName(publicURL)); err != nil {
		slog.Warn("[Photo] failed to delete old photo", "object", storage.ObjectName(publicURL), "error", err)
	}
}

// CreateUser inserts a profile and, when a photo is given, uploads it under the
// new id and patches photo_url. A failed upload keeps the profile and is
// returned as a warning.
func (s *PhotoService) CreateUser(ctx context.Context, actor *models.User, in UserInput, photo *PhotoFile) (*models.User, string, error) {
	if photo != nil {
		if _, _, err := ValidatePhoto(*photo); err != nil {
			return nil, "", err
		}
	}

	user, err := s.users.Create(ctx, actor, in)
	if err != nil {
		return nil, "", err
	}
	if photo == nil {
		return user, "", nil
	}

	photoURL, err := s.upload(ctx, user.ID, *photo)
	if err != nil {
		slog.Error("[Photo] upload after create failed", "user_id", utils.MaskID(user.ID), "error", err)
		return user, "Traveler created, but the photo upload failed", nil
	}
	if err := s.users.SetPhotoURL(ctx, user.ID, photoURL); err != nil {
		slog.Error("[Photo] saving photo url failed", "user_id", utils.MaskID(user.ID), "error", err)
		s.removeObject(ctx, photoURL)
		return user, "Traveler created, but the photo could not be saved", nil
	}

	user.PhotoURL = photoURL
	return user, "", nil
}

// Replace uploads a new photo for one of the actor's travelers and deletes the
// previous object first, best-effort. When the upload fails the old URL is
// cleared so photo_url never points at a deleted object.
func (s *PhotoService) Replace(ctx context.Context, actor *models.User, userID string, photo PhotoFile) (*models.User, error) {
	user, err := s.users.Get(ctx, actor.OwnerScope(), userID)
	if err != nil {
		return nil, err
	}
	if _, _, err := ValidatePhoto(photo); err != nil {
		return nil, err
	}

	s.removeObject(ctx, user.PhotoURL)

	photoURL, err := s.upload(ctx, user.ID, photo)
	if err != nil {
		if user.PhotoURL != "" {
			if clearErr := s.users.SetPhotoURL(ctx, user.ID, ""); clearErr != nil {
				slog.Error("[Photo] clearing stale photo url failed", "user_id", utils.MaskID(user.ID), "error", clearErr)
			}
		}
		if errors.Is(err, storage.ErrObjectExists) {
			return nil, conflict("A photo was uploaded at the same moment, please retry")
		}
		return nil, err
	}
	if err := s.users.SetPhotoURL(ctx, user.ID, photoURL); err != nil {
		return nil, err
	}

	user.PhotoURL = photoURL
	return user, nil
}

// Remove clears a traveler's photo and deletes the object best-effort.
func (s *PhotoService) Remove(ctx context.Context, actor *models.User, userID string) (*models.User, error) {
	user, err := s.users.Get(ctx, actor.OwnerScope(), userID)
	if err != nil {
		return nil, err
	}
	if user.PhotoURL == "" {
		return user, nil
	}

	s.removeObject(ctx, user.PhotoURL)
	if err := s.users.SetPhotoURL(ctx, user.ID, ""); err != nil {
		return nil, err
	}

	user.PhotoURL = ""
	return user, nil
}
