package service

import (
	"errors"
	"fmt"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ModuleStatus string

const (
	StatusLocked     ModuleStatus = "locked"
	StatusAvailable  ModuleStatus = "available"
	StatusInProgress ModuleStatus = "in_progress"
	StatusCompleted  ModuleStatus = "completed"
)

// ModuleUnlockInfo 每次读取都重新计算，不做任何缓存：
// 解锁判定控制内容可见性，缓存一旦与进度记录不一致就是安全问题
type ModuleUnlockInfo struct {
	ModuleID                uint         `json:"moduleId"`
	Title                   string       `json:"title"`
	IsUnlocked              bool         `json:"isUnlocked"`
	Status                  ModuleStatus `json:"status"`
	Progress                int          `json:"progress"`
	UnlockMessage           string       `json:"unlockMessage,omitempty"`
	PrerequisiteModuleID    uint         `json:"prerequisiteModuleId,omitempty"`
	PrerequisiteModuleTitle string       `json:"prerequisiteModuleTitle,omitempty"`
}

type UnlockedModule struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

type CompletionResult struct {
	ModuleProgressPercent int             `json:"moduleProgressPercent"`
	IsModuleComplete      bool            `json:"isModuleComplete"`
	UnlockedModule        *UnlockedModule `json:"unlockedModule,omitempty"`
}

type ProgressService struct {
	ModuleRepo     *repository.ModuleRepository
	ContentRepo    *repository.ContentRepository
	AssignmentRepo *repository.AssignmentRepository
	SubmissionRepo *repository.SubmissionRepository
	ProgressRepo   *repository.ModuleProgressRepository
	DB             *gorm.DB
}

func NewProgressService(
	moduleRepo *repository.ModuleRepository,
	contentRepo *repository.ContentRepository,
	assignmentRepo *repository.AssignmentRepository,
	submissionRepo *repository.SubmissionRepository,
	progressRepo *repository.ModuleProgressRepository,
	db *gorm.DB,
) *ProgressService {
	return &ProgressService{
		ModuleRepo:     moduleRepo,
		ContentRepo:    contentRepo,
		AssignmentRepo: assignmentRepo,
		SubmissionRepo: submissionRepo,
		ProgressRepo:   progressRepo,
		DB:             db,
	}
}

// CalculateProgress 50/50公式：内容和作业各占50分
// 某一侧总数为0时该侧记满分，否则纯内容或纯作业的模块永远到不了100%
func CalculateProgress(viewedCount, contentTotal, submittedCount, assignmentTotal int) int {
	contentHalf := 50.0
	if contentTotal > 0 {
		contentHalf = float64(viewedCount) / float64(contentTotal) * 50
	}

	assignmentHalf := 50.0
	if assignmentTotal > 0 {
		assignmentHalf = float64(submittedCount) / float64(assignmentTotal) * 50
	}

	percent := int(math.Round(contentHalf + assignmentHalf))
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return percent
}

// evaluateUnlock 单模块解锁判定，纯函数
// prev 为 nil 表示没有可用的直接前驱（首模块、序列空洞或不要求前驱）
func evaluateUnlock(module *model.CourseModule, progressPercent int, isCompleted bool, prev *model.CourseModule, prevCompleted bool) ModuleUnlockInfo {
	info := ModuleUnlockInfo{
		ModuleID: module.ID,
		Title:    module.Title,
	}

	// 已完成短路，后续条件不再参与判定
	if isCompleted {
		info.IsUnlocked = true
		info.Status = StatusCompleted
		info.Progress = 100
		return info
	}

	unlocked := module.OrderIndex == 0 || !module.RequiresPrevious || prev == nil || prevCompleted

	if !unlocked {
		info.IsUnlocked = false
		info.Status = StatusLocked
		info.Progress = 0
		info.UnlockMessage = fmt.Sprintf("Complete %q to unlock", prev.Title)
		info.PrerequisiteModuleID = prev.ID
		info.PrerequisiteModuleTitle = prev.Title
		return info
	}

	info.IsUnlocked = true
	info.Progress = progressPercent
	if progressPercent > 0 {
		info.Status = StatusInProgress
	} else {
		info.Status = StatusAvailable
	}
	return info
}

// GetModulesUnlockInfo 一次性取齐课程数据后在内存中按 order_index 升序折叠，
// 每个模块的判定用前一个模块的计算结果，不重查库
func (s *ProgressService) GetModulesUnlockInfo(courseID, userID uint) (map[uint]ModuleUnlockInfo, error) {
	modules, err := s.ModuleRepo.FindPublishedByCourse(courseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	return s.modulesUnlockInfo(courseID, userID, modules)
}

func (s *ProgressService) modulesUnlockInfo(courseID, userID uint, modules []model.CourseModule) (map[uint]ModuleUnlockInfo, error) {
	if len(modules) == 0 {
		return map[uint]ModuleUnlockInfo{}, nil
	}

	moduleIDs := make([]uint, len(modules))
	for i, m := range modules {
		moduleIDs[i] = m.ID
	}

	progressRows, err := s.ProgressRepo.FindByUserAndModules(userID, moduleIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	contentIDs, err := s.ContentRepo.FindPublishedIDsByModules(moduleIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	assignmentCounts, err := s.AssignmentRepo.CountPublishedByModules(moduleIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	submissionCounts, err := s.SubmissionRepo.CountByUserAndModules(userID, moduleIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}

	// order_index 重复是数据完整性问题：记录日志，对受影响模块放行而不是拒绝
	orderCounts := make(map[int]int, len(modules))
	for _, m := range modules {
		orderCounts[m.OrderIndex]++
	}
	for idx, n := range orderCounts {
		if n > 1 {
			logger.Log.Warn("duplicate order_index in published module sequence",
				zap.Uint("courseId", courseID),
				zap.Int("orderIndex", idx),
				zap.Int("count", n))
		}
	}

	infos := make(map[uint]ModuleUnlockInfo, len(modules))
	for i := range modules {
		m := &modules[i]

		var completed bool
		viewed := 0
		if row, ok := progressRows[m.ID]; ok {
			completed = row.CompletedAt != nil
			viewed = countViewed(row.ContentViewed, contentIDs[m.ID])
		}
		percent := CalculateProgress(viewed, len(contentIDs[m.ID]), submissionCounts[m.ID], assignmentCounts[m.ID])

		// 直接前驱只认排好序的相邻模块且索引正好差1；
		// 序列空洞与重复索引都按无前驱处理（放行）
		var prev *model.CourseModule
		prevCompleted := false
		if i > 0 && modules[i-1].OrderIndex == m.OrderIndex-1 && orderCounts[m.OrderIndex-1] == 1 {
			prev = &modules[i-1]
			prevCompleted = infos[prev.ID].Status == StatusCompleted
		} else if m.OrderIndex > 0 && m.RequiresPrevious && !completed {
			logger.Log.Warn("no usable predecessor for gated module, unlocking permissively",
				zap.Uint("courseId", courseID),
				zap.Uint("moduleId", m.ID),
				zap.Int("orderIndex", m.OrderIndex))
		}

		infos[m.ID] = evaluateUnlock(m, percent, completed, prev, prevCompleted)
	}

	return infos, nil
}

// ListModulesUnlockInfo 按 order_index 升序返回课程模块的解锁状态列表
func (s *ProgressService) ListModulesUnlockInfo(courseID, userID uint) ([]ModuleUnlockInfo, error) {
	modules, err := s.ModuleRepo.FindPublishedByCourse(courseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	infos, err := s.modulesUnlockInfo(courseID, userID, modules)
	if err != nil {
		return nil, err
	}

	out := make([]ModuleUnlockInfo, 0, len(modules))
	for _, m := range modules {
		if info, ok := infos[m.ID]; ok {
			out = append(out, info)
		}
	}
	return out, nil
}

// GetModuleUnlockInfo 单模块查询，仍按整条课程链计算以保证前驱判定一致
func (s *ProgressService) GetModuleUnlockInfo(moduleID, userID uint) (*ModuleUnlockInfo, error) {
	module, err := s.ModuleRepo.FindByID(moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrModuleNotFound
		}
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	if !module.IsPublished {
		return nil, util.ErrModuleNotFound
	}

	infos, err := s.GetModulesUnlockInfo(module.CourseID, userID)
	if err != nil {
		return nil, err
	}
	info, ok := infos[moduleID]
	if !ok {
		return nil, util.ErrModuleNotFound
	}
	return &info, nil
}

// RecordContentViewed 记录一次内容查看事件
// 集合添加幂等；首次达到100%时写入 completedAt（条件更新保证至多一次），
// 且仅在该次转换上返回下一模块的解锁通知
func (s *ProgressService) RecordContentViewed(userID, moduleID, contentID uint) (*CompletionResult, error) {
	module, err := s.ModuleRepo.FindByID(moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrModuleNotFound
		}
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	if !module.IsPublished {
		return nil, util.ErrModuleNotFound
	}

	content, err := s.ContentRepo.FindByID(contentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrContentNotFound
		}
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	if content.ModuleID != moduleID || !content.IsPublished {
		return nil, util.ErrContentNotFound
	}

	contentIDs, err := s.ContentRepo.FindPublishedIDsByModules([]uint{moduleID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	assignmentCounts, err := s.AssignmentRepo.CountPublishedByModules([]uint{moduleID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	submissionCounts, err := s.SubmissionRepo.CountByUserAndModules(userID, []uint{moduleID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}

	result := &CompletionResult{}
	justCompleted := false

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		progress, err := s.ProgressRepo.LockForUpdate(tx, userID, moduleID)
		if err != nil {
			return err
		}

		if !progress.HasViewed(contentID) {
			progress.ContentViewed = append(progress.ContentViewed, contentID)
			if err := s.ProgressRepo.Save(tx, progress); err != nil {
				return err
			}
		}

		viewed := countViewed(progress.ContentViewed, contentIDs[moduleID])
		percent := CalculateProgress(viewed, len(contentIDs[moduleID]), submissionCounts[moduleID], assignmentCounts[moduleID])
		result.ModuleProgressPercent = percent

		if percent >= 100 && progress.CompletedAt == nil {
			done, err := s.ProgressRepo.MarkCompleted(tx, progress.ID, time.Now())
			if err != nil {
				return err
			}
			justCompleted = done
		}

		result.IsModuleComplete = progress.CompletedAt != nil || justCompleted
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}

	if justCompleted {
		monitoring.ModuleCompletionCounter.WithLabelValues(strconv.FormatUint(uint64(module.CourseID), 10)).Inc()
		logger.Log.Info("module completed",
			zap.Uint("userId", userID),
			zap.Uint("moduleId", moduleID),
			zap.Uint("courseId", module.CourseID))

		if unlocked := s.nextUnlockedModule(module, userID); unlocked != nil {
			result.UnlockedModule = unlocked
		}
	}

	return result, nil
}

// RecheckCompletion 作业提交后的进度重算
// 提交也占进度的一半，纯作业或最后一项是作业的模块靠这里达成完成转换
func (s *ProgressService) RecheckCompletion(userID uint, module *model.CourseModule) (*CompletionResult, error) {
	contentIDs, err := s.ContentRepo.FindPublishedIDsByModules([]uint{module.ID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	assignmentCounts, err := s.AssignmentRepo.CountPublishedByModules([]uint{module.ID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	submissionCounts, err := s.SubmissionRepo.CountByUserAndModules(userID, []uint{module.ID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}

	result := &CompletionResult{}
	justCompleted := false

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		progress, err := s.ProgressRepo.LockForUpdate(tx, userID, module.ID)
		if err != nil {
			return err
		}

		viewed := countViewed(progress.ContentViewed, contentIDs[module.ID])
		percent := CalculateProgress(viewed, len(contentIDs[module.ID]), submissionCounts[module.ID], assignmentCounts[module.ID])
		result.ModuleProgressPercent = percent

		if percent >= 100 && progress.CompletedAt == nil {
			done, err := s.ProgressRepo.MarkCompleted(tx, progress.ID, time.Now())
			if err != nil {
				return err
			}
			justCompleted = done
		}

		result.IsModuleComplete = progress.CompletedAt != nil || justCompleted
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}

	if justCompleted {
		monitoring.ModuleCompletionCounter.WithLabelValues(strconv.FormatUint(uint64(module.CourseID), 10)).Inc()
		logger.Log.Info("module completed",
			zap.Uint("userId", userID),
			zap.Uint("moduleId", module.ID),
			zap.Uint("courseId", module.CourseID))

		if unlocked := s.nextUnlockedModule(module, userID); unlocked != nil {
			result.UnlockedModule = unlocked
		}
	}

	return result, nil
}

// nextUnlockedModule 本模块刚完成时检查 orderIndex+1 的模块，
// 判定规则与批量折叠一致：只在它确实经历了锁定到解锁的转换时才通知
func (s *ProgressService) nextUnlockedModule(completed *model.CourseModule, userID uint) *UnlockedModule {
	modules, err := s.ModuleRepo.FindPublishedByCourse(completed.CourseID)
	if err != nil {
		logger.Log.Warn("failed to look up next module after completion",
			zap.Uint("moduleId", completed.ID), zap.Error(err))
		return nil
	}

	orderCounts := make(map[int]int, len(modules))
	for _, m := range modules {
		orderCounts[m.OrderIndex]++
	}

	var next *model.CourseModule
	for i := range modules {
		if modules[i].ID == completed.ID {
			if i+1 < len(modules) && modules[i+1].OrderIndex == completed.OrderIndex+1 {
				next = &modules[i+1]
			}
			break
		}
	}
	if next == nil {
		return nil
	}

	// 不要求前驱的模块从未被锁过，没有通知的意义
	if !next.RequiresPrevious {
		return nil
	}
	// 前驱索引重复时折叠走的是放行规则，下一模块本来就没被锁住
	if orderCounts[completed.OrderIndex] != 1 {
		return nil
	}

	row, err := s.ProgressRepo.FindByUserAndModule(userID, next.ID)
	if err == nil && row.CompletedAt != nil {
		return nil
	}

	return &UnlockedModule{ID: next.ID, Title: next.Title}
}

// countViewed 只统计仍然存在且已发布的内容，集合里可能残留已删除内容的ID
func countViewed(viewed []uint, publishedIDs []uint) int {
	if len(viewed) == 0 || len(publishedIDs) == 0 {
		return 0
	}
	set := make(map[uint]struct{}, len(publishedIDs))
	for _, id := range publishedIDs {
		set[id] = struct{}{}
	}
	count := 0
	for _, id := range viewed {
		if _, ok := set[id]; ok {
			count++
		}
	}
	return count
}
