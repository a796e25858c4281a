package service

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/walletkart/internal/config"
)

// BulkUploadService 批量订单文件上传校验
type BulkUploadService struct {
	cfg *config.Config
}

// NewBulkUploadService 创建上传校验服务
func NewBulkUploadService(cfg *config.Config) *BulkUploadService {
	return &BulkUploadService{cfg: cfg}
}

// Open 校验并打开上传的批量订单文件
// 扩展名白名单 + 大小上限，拒绝信息直接面向用户
func (s *BulkUploadService) Open(file *multipart.FileHeader) (multipart.File, error) {
	if file == nil {
		return nil, NewBusinessError("No file uploaded")
	}
	if s.cfg.Upload.MaxSize > 0 && file.Size > s.cfg.Upload.MaxSize {
		return nil, NewBusinessError(fmt.Sprintf("File too large (max %d MB)", s.cfg.Upload.MaxSize/1024/1024))
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if len(s.cfg.Upload.AllowedExtensions) > 0 && !isAllowedExtension(ext, s.cfg.Upload.AllowedExtensions) {
		return nil, NewBusinessError(fmt.Sprintf("Rejected: %s", file.Filename))
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	return src, nil
}

func isAllowedExtension(ext string, allowed []string) bool {
	if ext == "" {
		return false
	}
	for _, candidate := range allowed {
		if strings.EqualFold(strings.TrimSpace(candidate), ext) {
			return true
		}
	}
	return false
}
