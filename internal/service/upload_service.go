package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	folderScreenshots = "screenshots"
	folderAvatars     = "avatars"
)

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type UploadService struct {
	store    ObjectStore
	maxBytes int64
}

func NewUploadService(store ObjectStore, maxBytes int64) *UploadService {
	return &UploadService{store: store, maxBytes: maxBytes}
}

// UploadScreenshot 保存付款截图，返回公开地址供单据引用
func (s *UploadService) UploadScreenshot(ctx context.Context, userID int64, body io.Reader, size int64) (string, error) {
	return s.storeImage(ctx, folderScreenshots, userID, body, size)
}

// UploadAvatar 保存头像
func (s *UploadService) UploadAvatar(ctx context.Context, userID int64, body io.Reader, size int64) (string, error) {
	return s.storeImage(ctx, folderAvatars, userID, body, size)
}

func (s *UploadService) storeImage(ctx context.Context, folder string, userID int64, body io.Reader, size int64) (string, error) {
	if s.store == nil {
		return "", ErrStorageUnavailable
	}
	if size <= 0 {
		return "", fmt.Errorf("%w: 空文件", ErrInvalidInput)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return "", ErrUploadTooLarge
	}

	// 按内容判断类型，不信任客户端传的 Content-Type
	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("读取上传文件失败: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", ErrUnsupportedUpload
	}

	key := fmt.Sprintf("%s/%d/%s%s", folder, userID, uuid.NewString(), ext)
	url, err := s.store.Put(ctx, key, io.MultiReader(bytes.NewReader(head), body), size, contentType)
	if err != nil {
		return "", err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"key":     key,
		"size":    size,
	}).Info("文件已上传")
	return url, nil
}
