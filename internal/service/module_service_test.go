package service

import (
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newModuleService(db *gorm.DB) *ModuleService {
	return NewModuleService(repository.NewModuleRepository(db), repository.NewCourseRepository(db))
}

func TestModuleCreateAppendsToSequence(t *testing.T) {
	db := newTestDB(t)
	s := newModuleService(db)

	first, err := s.Create(1, CreateModuleRequest{Title: "First"})
	require.NoError(t, err)
	assert.Equal(t, 0, first.OrderIndex)
	assert.True(t, first.RequiresPrevious)

	optional := false
	second, err := s.Create(1, CreateModuleRequest{Title: "Second", RequiresPrevious: &optional})
	require.NoError(t, err)
	assert.Equal(t, 1, second.OrderIndex)
	assert.False(t, second.RequiresPrevious)

	// false 必须真正落库，不能被列默认值顶掉
	var persisted model.CourseModule
	require.NoError(t, db.First(&persisted, second.ID).Error)
	assert.False(t, persisted.RequiresPrevious)

	// 另一门课的序列独立编号
	other, err := s.Create(2, CreateModuleRequest{Title: "Other"})
	require.NoError(t, err)
	assert.Equal(t, 0, other.OrderIndex)
}

func TestModuleReorder(t *testing.T) {
	db := newTestDB(t)
	s := newModuleService(db)

	a, err := s.Create(1, CreateModuleRequest{Title: "A"})
	require.NoError(t, err)
	b, err := s.Create(1, CreateModuleRequest{Title: "B"})
	require.NoError(t, err)
	c, err := s.Create(1, CreateModuleRequest{Title: "C"})
	require.NoError(t, err)

	require.NoError(t, s.Reorder(1, []uint{c.ID, a.ID, b.ID}))

	modules, err := s.ListByCourse(1, false)
	require.NoError(t, err)
	require.Len(t, modules, 3)
	assert.Equal(t, c.ID, modules[0].ID)
	assert.Equal(t, a.ID, modules[1].ID)
	assert.Equal(t, b.ID, modules[2].ID)
	assert.Equal(t, 0, modules[0].OrderIndex)
	assert.Equal(t, 1, modules[1].OrderIndex)
	assert.Equal(t, 2, modules[2].OrderIndex)
}

func TestModuleReorderRejectsBadSequences(t *testing.T) {
	db := newTestDB(t)
	s := newModuleService(db)

	a, err := s.Create(1, CreateModuleRequest{Title: "A"})
	require.NoError(t, err)
	b, err := s.Create(1, CreateModuleRequest{Title: "B"})
	require.NoError(t, err)

	// 缺模块
	assert.ErrorIs(t, s.Reorder(1, []uint{a.ID}), util.ErrInvalidModuleSeq)
	// 未知ID
	assert.ErrorIs(t, s.Reorder(1, []uint{a.ID, 9999}), util.ErrInvalidModuleSeq)
	// 重复ID
	assert.ErrorIs(t, s.Reorder(1, []uint{a.ID, a.ID}), util.ErrInvalidModuleSeq)

	// 拒绝的重排不能留下副作用
	modules, err := s.ListByCourse(1, false)
	require.NoError(t, err)
	assert.Equal(t, a.ID, modules[0].ID)
	assert.Equal(t, b.ID, modules[1].ID)
}

func TestModuleUpdatePartialFields(t *testing.T) {
	db := newTestDB(t)
	s := newModuleService(db)

	m, err := s.Create(1, CreateModuleRequest{Title: "Draft", Description: "desc"})
	require.NoError(t, err)

	published := true
	updated, err := s.Update(m, UpdateModuleRequest{IsPublished: &published})
	require.NoError(t, err)
	assert.Equal(t, "Draft", updated.Title)
	assert.Equal(t, "desc", updated.Description)
	assert.True(t, updated.IsPublished)

	var got model.CourseModule
	require.NoError(t, db.First(&got, m.ID).Error)
	assert.True(t, got.IsPublished)
}
