package service

import (
	"errors"
	"fmt"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// 内存库每个连接各自独立，必须收敛到单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.CourseModule{},
		&model.ContentItem{},
		&model.Assignment{},
		&model.AssignmentSubmission{},
		&model.ModuleProgress{},
	))
	return db
}

func newProgressService(db *gorm.DB) *ProgressService {
	return NewProgressService(
		repository.NewModuleRepository(db),
		repository.NewContentRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewModuleProgressRepository(db),
		db,
	)
}

func seedModule(t *testing.T, db *gorm.DB, courseID uint, title string, orderIndex int, requiresPrevious bool) *model.CourseModule {
	t.Helper()
	m := &model.CourseModule{
		CourseID:         courseID,
		Title:            title,
		OrderIndex:       orderIndex,
		RequiresPrevious: requiresPrevious,
		IsPublished:      true,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

func seedContent(t *testing.T, db *gorm.DB, moduleID uint, n int) []model.ContentItem {
	t.Helper()
	items := make([]model.ContentItem, 0, n)
	for i := 0; i < n; i++ {
		item := model.ContentItem{
			ModuleID:    moduleID,
			Title:       fmt.Sprintf("content %d", i),
			Type:        model.ContentText,
			OrderIndex:  i,
			IsPublished: true,
		}
		require.NoError(t, db.Create(&item).Error)
		items = append(items, item)
	}
	return items
}

func seedAssignment(t *testing.T, db *gorm.DB, moduleID uint, title string) *model.Assignment {
	t.Helper()
	a := &model.Assignment{
		ModuleID:    moduleID,
		Title:       title,
		MaxPoints:   100,
		IsPublished: true,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

func TestCalculateProgress(t *testing.T) {
	tests := []struct {
		name                            string
		viewed, contents, subs, assigns int
		want                            int
	}{
		{"empty module is complete", 0, 0, 0, 0, 100},
		{"nothing done", 0, 4, 0, 2, 0},
		{"half of each axis", 2, 4, 1, 2, 50},
		{"all done", 4, 4, 2, 2, 100},
		{"content only module", 2, 4, 0, 0, 75},
		{"assignment only module", 0, 0, 1, 2, 75},
		{"rounds up", 3, 4, 0, 0, 88},
		{"clamped at 100", 10, 4, 5, 2, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateProgress(tt.viewed, tt.contents, tt.subs, tt.assigns))
		})
	}
}

func TestSequentialUnlockChain(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	a := seedModule(t, db, 1, "Basics", 0, true)
	b := seedModule(t, db, 1, "Pointers", 1, true)
	c := seedModule(t, db, 1, "Structs", 2, true)
	seedContent(t, db, a.ID, 1)
	seedContent(t, db, b.ID, 1)
	seedContent(t, db, c.ID, 1)

	infos, err := s.GetModulesUnlockInfo(1, 42)
	require.NoError(t, err)
	require.Len(t, infos, 3)

	// 纯内容模块作业侧记满分，未动过也是50%
	assert.True(t, infos[a.ID].IsUnlocked)
	assert.Equal(t, StatusInProgress, infos[a.ID].Status)
	assert.Equal(t, 50, infos[a.ID].Progress)

	assert.False(t, infos[b.ID].IsUnlocked)
	assert.Equal(t, StatusLocked, infos[b.ID].Status)
	assert.Equal(t, 0, infos[b.ID].Progress)
	assert.Equal(t, `Complete "Basics" to unlock`, infos[b.ID].UnlockMessage)
	assert.Equal(t, a.ID, infos[b.ID].PrerequisiteModuleID)
	assert.Equal(t, "Basics", infos[b.ID].PrerequisiteModuleTitle)

	assert.False(t, infos[c.ID].IsUnlocked)
	assert.Equal(t, b.ID, infos[c.ID].PrerequisiteModuleID)
}

func TestFirstModuleAlwaysUnlocked(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	a := seedModule(t, db, 1, "Intro", 0, true)
	seedContent(t, db, a.ID, 2)

	infos, err := s.GetModulesUnlockInfo(1, 7)
	require.NoError(t, err)
	assert.True(t, infos[a.ID].IsUnlocked)
}

func TestOptionalModuleIgnoresPredecessor(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	a := seedModule(t, db, 1, "Required", 0, true)
	b := seedModule(t, db, 1, "Optional extras", 1, false)
	seedContent(t, db, a.ID, 1)
	seedContent(t, db, b.ID, 1)

	infos, err := s.GetModulesUnlockInfo(1, 7)
	require.NoError(t, err)
	assert.True(t, infos[b.ID].IsUnlocked)
	assert.Empty(t, infos[b.ID].UnlockMessage)
}

func TestSequenceGapUnlocksPermissively(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	a := seedModule(t, db, 1, "First", 0, true)
	// 索引1缺失，索引2的模块找不到直接前驱
	c := seedModule(t, db, 1, "Third", 2, true)
	seedContent(t, db, a.ID, 1)
	seedContent(t, db, c.ID, 1)

	infos, err := s.GetModulesUnlockInfo(1, 7)
	require.NoError(t, err)
	assert.True(t, infos[c.ID].IsUnlocked)
	assert.Equal(t, StatusInProgress, infos[c.ID].Status)
}

func TestDuplicateOrderIndexUnlocksPermissively(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	seedModule(t, db, 1, "First", 0, true)
	b1 := seedModule(t, db, 1, "Second A", 1, true)
	b2 := seedModule(t, db, 1, "Second B", 1, true)
	c := seedModule(t, db, 1, "Third", 2, true)
	for _, m := range []uint{b1.ID, b2.ID, c.ID} {
		seedContent(t, db, m, 1)
	}

	infos, err := s.GetModulesUnlockInfo(1, 7)
	require.NoError(t, err)
	// 前驱索引重复时判定不可靠，宁可放行也不误锁
	assert.True(t, infos[c.ID].IsUnlocked)
}

func TestCompletedModuleStatusSticky(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	a := seedModule(t, db, 1, "Done", 0, true)
	b := seedModule(t, db, 1, "Next", 1, true)
	seedContent(t, db, a.ID, 3)
	seedContent(t, db, b.ID, 1)

	now := time.Now()
	require.NoError(t, db.Create(&model.ModuleProgress{
		UserID:        7,
		ModuleID:      a.ID,
		ContentViewed: []uint{},
		CompletedAt:   &now,
	}).Error)

	infos, err := s.GetModulesUnlockInfo(1, 7)
	require.NoError(t, err)

	// 完成状态短路：不再看当前进度数字
	assert.Equal(t, StatusCompleted, infos[a.ID].Status)
	assert.Equal(t, 100, infos[a.ID].Progress)
	assert.True(t, infos[b.ID].IsUnlocked)
}

func TestRecordContentViewedCompletesAndUnlocksNext(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	a := seedModule(t, db, 1, "Basics", 0, true)
	b := seedModule(t, db, 1, "Pointers", 1, true)
	contents := seedContent(t, db, a.ID, 1)
	seedContent(t, db, b.ID, 1)

	result, err := s.RecordContentViewed(7, a.ID, contents[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 100, result.ModuleProgressPercent)
	assert.True(t, result.IsModuleComplete)
	require.NotNil(t, result.UnlockedModule)
	assert.Equal(t, b.ID, result.UnlockedModule.ID)
	assert.Equal(t, "Pointers", result.UnlockedModule.Title)

	var progress model.ModuleProgress
	require.NoError(t, db.Where("user_id = ? AND module_id = ?", 7, a.ID).First(&progress).Error)
	require.NotNil(t, progress.CompletedAt)
	firstCompletedAt := *progress.CompletedAt

	// 重复查看幂等：进度不变，完成时间不变，不再产生解锁通知
	again, err := s.RecordContentViewed(7, a.ID, contents[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 100, again.ModuleProgressPercent)
	assert.True(t, again.IsModuleComplete)
	assert.Nil(t, again.UnlockedModule)

	require.NoError(t, db.Where("user_id = ? AND module_id = ?", 7, a.ID).First(&progress).Error)
	require.NotNil(t, progress.CompletedAt)
	assert.WithinDuration(t, firstCompletedAt, *progress.CompletedAt, time.Millisecond)
}

func TestRecordContentViewedNoNotificationForOptionalNext(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	a := seedModule(t, db, 1, "Basics", 0, true)
	seedModule(t, db, 1, "Optional", 1, false)
	contents := seedContent(t, db, a.ID, 1)

	result, err := s.RecordContentViewed(7, a.ID, contents[0].ID)
	require.NoError(t, err)
	assert.True(t, result.IsModuleComplete)
	// 从未被锁过的模块没有解锁可言
	assert.Nil(t, result.UnlockedModule)
}

func TestNoUnlockNotificationWhenNextAlreadyOpen(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	a1 := seedModule(t, db, 1, "Track A", 0, true)
	a2 := seedModule(t, db, 1, "Track B", 0, true)
	b := seedModule(t, db, 1, "Advanced", 1, true)
	aContents := seedContent(t, db, a1.ID, 1)
	seedContent(t, db, a2.ID, 1)
	seedContent(t, db, b.ID, 1)

	// 前驱索引重复，B 走放行规则，完成前就已解锁
	infos, err := s.GetModulesUnlockInfo(1, 7)
	require.NoError(t, err)
	assert.True(t, infos[b.ID].IsUnlocked)

	// 没有锁定到解锁的转换，完成 A1 不该产生解锁通知
	result, err := s.RecordContentViewed(7, a1.ID, aContents[0].ID)
	require.NoError(t, err)
	assert.True(t, result.IsModuleComplete)
	assert.Nil(t, result.UnlockedModule)
}

func TestRecordContentViewedValidation(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	a := seedModule(t, db, 1, "Basics", 0, true)
	other := seedModule(t, db, 1, "Other", 1, true)
	contents := seedContent(t, db, a.ID, 1)
	otherContents := seedContent(t, db, other.ID, 1)

	_, err := s.RecordContentViewed(7, 9999, contents[0].ID)
	assert.ErrorIs(t, err, util.ErrModuleNotFound)

	_, err = s.RecordContentViewed(7, a.ID, 9999)
	assert.ErrorIs(t, err, util.ErrContentNotFound)

	// 内容属于别的模块
	_, err = s.RecordContentViewed(7, a.ID, otherContents[0].ID)
	assert.ErrorIs(t, err, util.ErrContentNotFound)

	// 未发布内容不计
	unpublished := model.ContentItem{ModuleID: a.ID, Title: "draft", Type: model.ContentText}
	require.NoError(t, db.Create(&unpublished).Error)
	_, err = s.RecordContentViewed(7, a.ID, unpublished.ID)
	assert.ErrorIs(t, err, util.ErrContentNotFound)
}

func TestProgressMixesContentAndAssignments(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	a := seedModule(t, db, 1, "Mixed", 0, true)
	contents := seedContent(t, db, a.ID, 2)
	assignment := seedAssignment(t, db, a.ID, "homework")

	// 内容和作业都有且都没动过，这是唯一出现 available 的形态
	infos, err := s.GetModulesUnlockInfo(1, 7)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, infos[a.ID].Status)
	assert.Equal(t, 0, infos[a.ID].Progress)

	// 看完全部内容但没交作业：内容半边满分
	for _, item := range contents {
		_, err := s.RecordContentViewed(7, a.ID, item.ID)
		require.NoError(t, err)
	}
	result, err := s.RecordContentViewed(7, a.ID, contents[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 50, result.ModuleProgressPercent)
	assert.False(t, result.IsModuleComplete)

	// 提交作业后重算，完成转换发生在提交路径上
	require.NoError(t, db.Create(&model.AssignmentSubmission{
		UserID:       7,
		AssignmentID: assignment.ID,
		Body:         "answer",
		SubmittedAt:  time.Now(),
	}).Error)

	recheck, err := s.RecheckCompletion(7, a)
	require.NoError(t, err)
	assert.Equal(t, 100, recheck.ModuleProgressPercent)
	assert.True(t, recheck.IsModuleComplete)
}

func TestViewedSetIgnoresRemovedContent(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	a := seedModule(t, db, 1, "Shrinking", 0, true)
	contents := seedContent(t, db, a.ID, 2)

	// 集合里残留一个已不存在的内容ID
	require.NoError(t, db.Create(&model.ModuleProgress{
		UserID:        7,
		ModuleID:      a.ID,
		ContentViewed: []uint{contents[0].ID, 9999},
	}).Error)

	// 1/2 内容 = 25分，作业侧空记满分50，共75
	infos, err := s.GetModulesUnlockInfo(1, 7)
	require.NoError(t, err)
	assert.Equal(t, 75, infos[a.ID].Progress)
	assert.Equal(t, StatusInProgress, infos[a.ID].Status)
}

func TestUnpublishedModulesExcluded(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	a := seedModule(t, db, 1, "Visible", 0, true)
	hidden := &model.CourseModule{CourseID: 1, Title: "Draft", OrderIndex: 1, RequiresPrevious: true}
	require.NoError(t, db.Create(hidden).Error)

	infos, err := s.GetModulesUnlockInfo(1, 7)
	require.NoError(t, err)
	assert.Len(t, infos, 1)
	assert.Contains(t, infos, a.ID)

	_, err = s.GetModuleUnlockInfo(hidden.ID, 7)
	assert.ErrorIs(t, err, util.ErrModuleNotFound)
}

func TestListModulesUnlockInfoOrdered(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	// 倒序创建，返回必须按 orderIndex 升序
	c := seedModule(t, db, 1, "C", 2, true)
	a := seedModule(t, db, 1, "A", 0, true)
	b := seedModule(t, db, 1, "B", 1, true)

	list, err := s.ListModulesUnlockInfo(1, 7)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, a.ID, list[0].ModuleID)
	assert.Equal(t, b.ID, list[1].ModuleID)
	assert.Equal(t, c.ID, list[2].ModuleID)
}

func TestEmptyModuleCompletesOnFirstTouch(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	// 无内容无作业的模块进度即100
	a := seedModule(t, db, 1, "Empty", 0, true)

	infos, err := s.GetModulesUnlockInfo(1, 7)
	require.NoError(t, err)
	assert.Equal(t, 100, infos[a.ID].Progress)
	// 但没有完成记录前状态不是 completed
	assert.Equal(t, StatusInProgress, infos[a.ID].Status)
}

func TestStoreErrorsWrapped(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	seedModule(t, db, 1, "Basics", 0, true)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = s.GetModulesUnlockInfo(1, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, util.ErrStoreUnavailable))
}
