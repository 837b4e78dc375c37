package service

import (
	"context"
	"errors"
	"fmt"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"strconv"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const threadViewsKeyPrefix = "discussion:views:"

type DiscussionService struct {
	DiscussionRepo *repository.DiscussionRepository
	Redis          *redis.Client
}

func NewDiscussionService(discussionRepo *repository.DiscussionRepository, rdb *redis.Client) *DiscussionService {
	return &DiscussionService{
		DiscussionRepo: discussionRepo,
		Redis:          rdb,
	}
}

type CreateThreadRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

type ReplyRequest struct {
	Body string `json:"body" binding:"required"`
}

// ThreadWithViews 主题加上Redis里的浏览计数
type ThreadWithViews struct {
	model.DiscussionThread
	Views int64 `json:"views"`
}

func (s *DiscussionService) CreateThread(courseID, authorID uint, req CreateThreadRequest) (*model.DiscussionThread, error) {
	thread := &model.DiscussionThread{
		CourseID: courseID,
		AuthorID: authorID,
		Title:    req.Title,
		Body:     req.Body,
	}
	if err := s.DiscussionRepo.CreateThread(thread); err != nil {
		return nil, err
	}
	return thread, nil
}

// GetThread 读主题带回复，顺手累加浏览计数
// 计数只是展示用途，Redis不可用时静默跳过
func (s *DiscussionService) GetThread(ctx context.Context, threadID uint) (*ThreadWithViews, error) {
	thread, err := s.DiscussionRepo.FindThreadWithReplies(threadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrThreadNotFound
		}
		return nil, err
	}

	key := threadViewsKey(threadID)
	views, err := s.Redis.Incr(ctx, key).Result()
	if err != nil {
		logger.Log.Debug("thread view counter unavailable", zap.Uint("threadId", threadID), zap.Error(err))
		views = 0
	}

	return &ThreadWithViews{DiscussionThread: *thread, Views: views}, nil
}

// ListThreads 课程讨论列表，浏览计数用MGET批量补齐
func (s *DiscussionService) ListThreads(ctx context.Context, courseID uint, page, limit int) ([]ThreadWithViews, int64, error) {
	threads, total, err := s.DiscussionRepo.ListThreadsByCourse(courseID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]ThreadWithViews, len(threads))
	for i, t := range threads {
		result[i] = ThreadWithViews{DiscussionThread: t}
	}
	if len(threads) == 0 {
		return result, total, nil
	}

	keys := make([]string, len(threads))
	for i, t := range threads {
		keys[i] = threadViewsKey(t.ID)
	}
	values, err := s.Redis.MGet(ctx, keys...).Result()
	if err != nil {
		logger.Log.Debug("thread view counters unavailable", zap.Error(err))
		return result, total, nil
	}
	for i, v := range values {
		if str, ok := v.(string); ok {
			if n, err := strconv.ParseInt(str, 10, 64); err == nil {
				result[i].Views = n
			}
		}
	}
	return result, total, nil
}

func (s *DiscussionService) GetThreadByID(threadID uint) (*model.DiscussionThread, error) {
	thread, err := s.DiscussionRepo.FindThreadByID(threadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrThreadNotFound
		}
		return nil, err
	}
	return thread, nil
}

func (s *DiscussionService) DeleteThread(threadID uint) error {
	return s.DiscussionRepo.DeleteThread(threadID)
}

func (s *DiscussionService) PinThread(threadID uint, pinned bool) (*model.DiscussionThread, error) {
	thread, err := s.GetThreadByID(threadID)
	if err != nil {
		return nil, err
	}
	thread.IsPinned = pinned
	if err := s.DiscussionRepo.DB.Model(thread).Update("is_pinned", pinned).Error; err != nil {
		return nil, err
	}
	return thread, nil
}

func (s *DiscussionService) Reply(threadID, authorID uint, req ReplyRequest) (*model.DiscussionReply, error) {
	if _, err := s.GetThreadByID(threadID); err != nil {
		return nil, err
	}

	reply := &model.DiscussionReply{
		ThreadID: threadID,
		AuthorID: authorID,
		Body:     req.Body,
	}
	if err := s.DiscussionRepo.CreateReply(reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *DiscussionService) GetReply(replyID uint) (*model.DiscussionReply, error) {
	return s.DiscussionRepo.FindReplyByID(replyID)
}

func (s *DiscussionService) DeleteReply(replyID uint) error {
	return s.DiscussionRepo.DeleteReply(replyID)
}

func threadViewsKey(threadID uint) string {
	return fmt.Sprintf("%s%d", threadViewsKeyPrefix, threadID)
}
