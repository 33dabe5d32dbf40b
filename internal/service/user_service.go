package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"

	"gymtrack/internal/domain"
	"gymtrack/internal/repository"
	"gymtrack/internal/storage"

	"github.com/google/uuid"
)

// --- Error Definitions ---
var (
	ErrInvalidProfile    = errors.New("invalid profile")
	ErrAvatarContentType = errors.New("avatar content type must be an image")
	ErrUploadURLError    = errors.New("failed to generate upload URL")
)

// ProfileInput carries the fields of the onboarding / profile-edit form.
type ProfileInput struct {
	Username string
	Name     string
	Bio      string
	Image    string
}

// AvatarUploadResponse pairs the presigned PUT URL with the public object
// location the client should store back on the profile after uploading.
type AvatarUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// UserService owns profile records. Identity itself lives with the
// external provider; the first profile save is what creates the local
// record and flips the onboarded flag.
type UserService interface {
	Upsert(ctx context.Context, externalUserID string, input ProfileInput) (*domain.User, error)
	Get(ctx context.Context, externalUserID string) (*domain.User, error)
	AvatarUploadURL(ctx context.Context, externalUserID, contentType string) (*AvatarUploadResponse, error)
	SetAvatar(ctx context.Context, externalUserID, objectKey string) error
	AvatarViewURL(ctx context.Context, user *domain.User) (string, error)
}

type userService struct {
	userRepo    repository.UserRepository
	fileStorage storage.FileStorage
}

// NewUserService creates a new instance of userService.
func NewUserService(userRepo repository.UserRepository, fileStorage storage.FileStorage) UserService {
	return &userService{
		userRepo:    userRepo,
		fileStorage: fileStorage,
	}
}

// Upsert creates or updates the profile for the external identity.
func (s *userService) Upsert(ctx context.Context, externalUserID string, input ProfileInput) (*domain.User, error) {
	if externalUserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidProfile)
	}
	if input.Username == "" || input.Name == "" {
		return nil, fmt.Errorf("%w: username and name are required", ErrInvalidProfile)
	}

	user := &domain.User{
		ExternalID: externalUserID,
		Username:   input.Username,
		Name:       input.Name,
		Bio:        input.Bio,
		Image:      input.Image,
	}

	saved, err := s.userRepo.Upsert(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return saved, nil
}

// Get fetches the profile for the external identity.
func (s *userService) Get(ctx context.Context, externalUserID string) (*domain.User, error) {
	user, err := s.userRepo.GetByExternalID(ctx, externalUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	return user, nil
}

// AvatarUploadURL returns a presigned PUT URL for a new profile image.
// The object key is random per upload; stale avatars are simply abandoned.
func (s *userService) AvatarUploadURL(ctx context.Context, externalUserID, contentType string) (*AvatarUploadResponse, error) {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, ErrAvatarContentType
	}
	if _, err := s.Get(ctx, externalUserID); err != nil {
		return nil, err
	}

	ext := extensionFor(contentType)
	objectKey := path.Join("avatars", externalUserID, uuid.NewString()+ext)

	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadURLError, err)
	}

	return &AvatarUploadResponse{UploadURL: url, ObjectKey: objectKey}, nil
}

// SetAvatar records the uploaded object key as the profile image and cleans
// up the replaced object, if there was one. The cleanup is best-effort; a
// leaked object only wastes bucket space.
func (s *userService) SetAvatar(ctx context.Context, externalUserID, objectKey string) error {
	if objectKey == "" {
		return fmt.Errorf("%w: missing object key", ErrInvalidProfile)
	}

	user, err := s.Get(ctx, externalUserID)
	if err != nil {
		return err
	}

	if err := s.userRepo.SetImage(ctx, externalUserID, objectKey); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set avatar: %w", err)
	}

	if old := user.Image; isManagedAvatar(old) && old != objectKey {
		if err := s.fileStorage.DeleteObject(ctx, old); err != nil {
			log.Printf("WARN: failed to delete replaced avatar %q: %v", old, err)
		}
	}
	return nil
}

// AvatarViewURL resolves the profile image to something a browser can load:
// a presigned GET for bucket-managed avatars, the stored value untouched
// for external URLs (e.g. the identity provider's default picture).
func (s *userService) AvatarViewURL(ctx context.Context, user *domain.User) (string, error) {
	if user == nil || user.Image == "" {
		return "", nil
	}
	if !isManagedAvatar(user.Image) {
		return user.Image, nil
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, user.Image, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign avatar: %w", err)
	}
	return url, nil
}

// isManagedAvatar reports whether the image value is an object key from our
// bucket rather than an external URL.
func isManagedAvatar(image string) bool {
	return strings.HasPrefix(image, "avatars/")
}

func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
