package service

import (
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newGradebookService(db *gorm.DB) *GradebookService {
	return NewGradebookService(
		repository.NewAssignmentRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewEnrollmentRepository(db),
	)
}

func seedSubmission(t *testing.T, db *gorm.DB, userID, assignmentID uint) *model.AssignmentSubmission {
	t.Helper()
	sub := &model.AssignmentSubmission{
		UserID:       userID,
		AssignmentID: assignmentID,
		Body:         "answer",
		SubmittedAt:  time.Now(),
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func TestGradeAcceptsZeroScore(t *testing.T) {
	db := newTestDB(t)
	s := newGradebookService(db)

	m := seedModule(t, db, 1, "Module", 0, true)
	assignment := seedAssignment(t, db, m.ID, "quiz")
	sub := seedSubmission(t, db, 7, assignment.ID)

	// 0分是合法评分，不能被当成缺失
	zero := 0.0
	graded, err := s.Grade(sub.ID, 99, GradeRequest{Score: &zero, Feedback: "redo"})
	require.NoError(t, err)
	require.NotNil(t, graded.Score)
	assert.Equal(t, 0.0, *graded.Score)
	assert.Equal(t, "redo", graded.Feedback)
	assert.Equal(t, uint(99), graded.GradedBy)
	require.NotNil(t, graded.GradedAt)
}

func TestGradeRejectsOutOfRangeScore(t *testing.T) {
	db := newTestDB(t)
	s := newGradebookService(db)

	m := seedModule(t, db, 1, "Module", 0, true)
	assignment := seedAssignment(t, db, m.ID, "quiz")
	sub := seedSubmission(t, db, 7, assignment.ID)

	over := assignment.MaxPoints + 1
	_, err := s.Grade(sub.ID, 99, GradeRequest{Score: &over})
	assert.Error(t, err)

	neg := -1.0
	_, err = s.Grade(sub.ID, 99, GradeRequest{Score: &neg})
	assert.Error(t, err)

	_, err = s.Grade(sub.ID, 99, GradeRequest{Feedback: "no score"})
	assert.Error(t, err)

	// 被拒绝的评分不能留下任何写入
	var got model.AssignmentSubmission
	require.NoError(t, db.First(&got, sub.ID).Error)
	assert.Nil(t, got.Score)
	assert.Nil(t, got.GradedAt)
}
