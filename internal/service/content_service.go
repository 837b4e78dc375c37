package service

import (
	"context"
	"errors"
	"fmt"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ContentService struct {
	ContentRepo     *repository.ContentRepository
	ModuleRepo      *repository.ModuleRepository
	ProgressService *ProgressService
	Storage         *StorageService
}

func NewContentService(
	contentRepo *repository.ContentRepository,
	moduleRepo *repository.ModuleRepository,
	progressService *ProgressService,
	storage *StorageService,
) *ContentService {
	return &ContentService{
		ContentRepo:     contentRepo,
		ModuleRepo:      moduleRepo,
		ProgressService: progressService,
		Storage:         storage,
	}
}

type CreateContentRequest struct {
	Title string            `json:"title" binding:"required"`
	Type  model.ContentType `json:"type" binding:"required"`
	Body  string            `json:"body"`
	URL   string            `json:"url"`
}

type UpdateContentRequest struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	URL         string `json:"url"`
	IsPublished *bool  `json:"isPublished"`
}

// Create 创建文本/链接类内容，文件类内容走 Upload
func (s *ContentService) Create(moduleID uint, req CreateContentRequest) (*model.ContentItem, error) {
	existing, err := s.ContentRepo.FindByModule(moduleID, false)
	if err != nil {
		return nil, err
	}

	item := &model.ContentItem{
		ModuleID:   moduleID,
		Title:      req.Title,
		Type:       req.Type,
		Body:       req.Body,
		URL:        req.URL,
		OrderIndex: len(existing),
	}
	if err := s.ContentRepo.Create(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Upload 上传视频或文档并创建内容条目
// 视频会探测时长并生成缩略图，失败不阻塞上传本身
func (s *ContentService) Upload(ctx context.Context, moduleID uint, title string, file *multipart.FileHeader) (*model.ContentItem, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	contentType := util.MimeOctetStream
	itemType := model.ContentDocument
	if containsExt(util.AllowedVideoExtensions, ext) {
		itemType = model.ContentVideo
		contentType = util.MimeVideo + strings.TrimPrefix(ext, ".")
	} else if !containsExt(util.AllowedDocumentExtensions, ext) {
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
	if ext == ".pdf" {
		contentType = util.MimePDF
	}

	tmpPath := filepath.Join(os.TempDir(), util.GenerateUUIDString()+ext)
	if err := saveMultipartFile(file, tmpPath); err != nil {
		return nil, err
	}
	defer os.Remove(tmpPath)

	filename := fmt.Sprintf("content/%d/%s%s", moduleID, util.GenerateUUIDString(), ext)
	url, err := s.Storage.UploadFile(ctx, filename, tmpPath, contentType)
	if err != nil {
		return nil, err
	}

	item := &model.ContentItem{
		ModuleID: moduleID,
		Title:    title,
		Type:     itemType,
		URL:      url,
		Size:     file.Size,
	}

	if itemType == model.ContentVideo {
		if info, err := util.GetVideoInfo(tmpPath); err != nil {
			logger.Log.Warn("video probe failed", zap.String("file", file.Filename), zap.Error(err))
		} else {
			item.Duration = info.Duration
			item.Size = info.Size
		}

		thumbPath := filepath.Join(os.TempDir(), util.GenerateUUIDString()+".jpg")
		if err := util.GenerateThumbnail(tmpPath, thumbPath, "00:00:01"); err != nil {
			logger.Log.Warn("thumbnail generation failed", zap.String("file", file.Filename), zap.Error(err))
		} else {
			thumbName := fmt.Sprintf("thumbnails/%d/%s.jpg", moduleID, util.GenerateUUIDString())
			if thumbURL, err := s.Storage.UploadFile(ctx, thumbName, thumbPath, util.MimeImage+"jpeg"); err == nil {
				item.Thumbnail = thumbURL
			}
			os.Remove(thumbPath)
		}
	}

	existing, err := s.ContentRepo.FindByModule(moduleID, false)
	if err != nil {
		return nil, err
	}
	item.OrderIndex = len(existing)

	if err := s.ContentRepo.Create(item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ContentService) GetByID(id uint) (*model.ContentItem, error) {
	item, err := s.ContentRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrContentNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *ContentService) Update(item *model.ContentItem, req UpdateContentRequest) (*model.ContentItem, error) {
	if req.Title != "" {
		item.Title = req.Title
	}
	if req.Body != "" {
		item.Body = req.Body
	}
	if req.URL != "" {
		item.URL = req.URL
	}
	if req.IsPublished != nil {
		item.IsPublished = *req.IsPublished
	}

	if err := s.ContentRepo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ContentService) Delete(id uint) error {
	return s.ContentRepo.Delete(id)
}

// ListForStudent 学生视角的模块内容列表
// 模块被锁时拒绝访问，绝不返回内容本体
func (s *ContentService) ListForStudent(moduleID, userID uint) ([]model.ContentItem, error) {
	info, err := s.ProgressService.GetModuleUnlockInfo(moduleID, userID)
	if err != nil {
		return nil, err
	}
	if !info.IsUnlocked {
		return nil, util.ErrModuleLocked
	}
	return s.ContentRepo.FindByModule(moduleID, true)
}

// GetForStudent 学生读取单个内容，同样受解锁门控
func (s *ContentService) GetForStudent(contentID, userID uint) (*model.ContentItem, error) {
	item, err := s.GetByID(contentID)
	if err != nil {
		return nil, err
	}
	if !item.IsPublished {
		return nil, util.ErrContentNotFound
	}

	info, err := s.ProgressService.GetModuleUnlockInfo(item.ModuleID, userID)
	if err != nil {
		return nil, err
	}
	if !info.IsUnlocked {
		return nil, util.ErrModuleLocked
	}
	return item, nil
}

func (s *ContentService) ListForInstructor(moduleID uint) ([]model.ContentItem, error) {
	return s.ContentRepo.FindByModule(moduleID, false)
}

func containsExt(allowed []string, ext string) bool {
	for _, a := range allowed {
		if a == ext {
			return true
		}
	}
	return false
}

func saveMultipartFile(file *multipart.FileHeader, dst string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = out.ReadFrom(src)
	return err
}
