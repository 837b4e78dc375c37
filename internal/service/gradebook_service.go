package service

import (
	"errors"
	"fmt"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type GradebookService struct {
	AssignmentRepo *repository.AssignmentRepository
	SubmissionRepo *repository.SubmissionRepository
	EnrollmentRepo *repository.EnrollmentRepository
}

func NewGradebookService(
	assignmentRepo *repository.AssignmentRepository,
	submissionRepo *repository.SubmissionRepository,
	enrollmentRepo *repository.EnrollmentRepository,
) *GradebookService {
	return &GradebookService{
		AssignmentRepo: assignmentRepo,
		SubmissionRepo: submissionRepo,
		EnrollmentRepo: enrollmentRepo,
	}
}

// GradeEntry 学生视角的单条成绩
type GradeEntry struct {
	AssignmentID    uint       `json:"assignmentId"`
	AssignmentTitle string     `json:"assignmentTitle"`
	MaxPoints       float64    `json:"maxPoints"`
	Submitted       bool       `json:"submitted"`
	SubmittedAt     *time.Time `json:"submittedAt,omitempty"`
	Score           *float64   `json:"score,omitempty"`
	Feedback        string     `json:"feedback,omitempty"`
	GradedAt        *time.Time `json:"gradedAt,omitempty"`
}

// StudentGrades 按课程汇总学生成绩，未提交和未批改的作业也列出
func (s *GradebookService) StudentGrades(userID, courseID uint) ([]GradeEntry, error) {
	assignments, err := s.AssignmentRepo.FindByCourse(courseID, true)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return []GradeEntry{}, nil
	}

	assignmentIDs := make([]uint, len(assignments))
	for i, a := range assignments {
		assignmentIDs[i] = a.ID
	}

	submissions, err := s.SubmissionRepo.FindByUserAndAssignments(userID, assignmentIDs)
	if err != nil {
		return nil, err
	}
	byAssignment := make(map[uint]*model.AssignmentSubmission, len(submissions))
	for i := range submissions {
		byAssignment[submissions[i].AssignmentID] = &submissions[i]
	}

	entries := make([]GradeEntry, 0, len(assignments))
	for _, a := range assignments {
		entry := GradeEntry{
			AssignmentID:    a.ID,
			AssignmentTitle: a.Title,
			MaxPoints:       a.MaxPoints,
		}
		if sub, ok := byAssignment[a.ID]; ok {
			entry.Submitted = true
			submittedAt := sub.SubmittedAt
			entry.SubmittedAt = &submittedAt
			entry.Score = sub.Score
			entry.Feedback = sub.Feedback
			entry.GradedAt = sub.GradedAt
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CourseGradebookRow 教师成绩册的一行：一个学生在全部作业上的得分
type CourseGradebookRow struct {
	UserID   uint              `json:"userId"`
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	Scores   map[uint]*float64 `json:"scores"`
	Missing  []uint            `json:"missing"`
	Ungraded []uint            `json:"ungraded"`
}

// CourseGradebookView 整课成绩矩阵，均分只统计已批改的提交
type CourseGradebookView struct {
	Assignments []model.Assignment   `json:"assignments"`
	Students    []CourseGradebookRow `json:"students"`
	Averages    map[uint]float64     `json:"averages"`
}

// CourseGradebook 教师视角的整课成绩矩阵
func (s *GradebookService) CourseGradebook(courseID uint) (*CourseGradebookView, error) {
	assignments, err := s.AssignmentRepo.FindByCourse(courseID, true)
	if err != nil {
		return nil, err
	}
	students, err := s.EnrollmentRepo.FindUsersByCourse(courseID)
	if err != nil {
		return nil, err
	}

	assignmentIDs := make([]uint, len(assignments))
	for i, a := range assignments {
		assignmentIDs[i] = a.ID
	}

	scoreSums := make(map[uint]float64, len(assignments))
	scoreCounts := make(map[uint]int, len(assignments))

	rows := make([]CourseGradebookRow, 0, len(students))
	for _, student := range students {
		submissions, err := s.SubmissionRepo.FindByUserAndAssignments(student.ID, assignmentIDs)
		if err != nil {
			return nil, err
		}
		byAssignment := make(map[uint]*model.AssignmentSubmission, len(submissions))
		for i := range submissions {
			byAssignment[submissions[i].AssignmentID] = &submissions[i]
		}

		row := CourseGradebookRow{
			UserID: student.ID,
			Name:   student.Name,
			Email:  student.Email,
			Scores: make(map[uint]*float64, len(assignments)),
		}
		for _, a := range assignments {
			sub, ok := byAssignment[a.ID]
			if !ok {
				row.Missing = append(row.Missing, a.ID)
				continue
			}
			if sub.Score == nil {
				row.Ungraded = append(row.Ungraded, a.ID)
				continue
			}
			row.Scores[a.ID] = sub.Score
			scoreSums[a.ID] += *sub.Score
			scoreCounts[a.ID]++
		}
		rows = append(rows, row)
	}

	averages := make(map[uint]float64, len(scoreSums))
	for id, sum := range scoreSums {
		averages[id] = sum / float64(scoreCounts[id])
	}

	return &CourseGradebookView{Assignments: assignments, Students: rows, Averages: averages}, nil
}

// GradeRequest 分数用指针，0分是合法评分，required 校验会吞掉它
type GradeRequest struct {
	Score    *float64 `json:"score" binding:"required"`
	Feedback string   `json:"feedback"`
}

// Grade 批改提交，分数必须在 [0, MaxPoints] 内
func (s *GradebookService) Grade(submissionID, graderID uint, req GradeRequest) (*model.AssignmentSubmission, error) {
	if req.Score == nil {
		return nil, fmt.Errorf("score is required")
	}

	submission, err := s.SubmissionRepo.FindByID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubmissionMissing
		}
		return nil, err
	}

	assignment, err := s.AssignmentRepo.FindByID(submission.AssignmentID)
	if err != nil {
		return nil, err
	}
	if *req.Score < 0 || *req.Score > assignment.MaxPoints {
		return nil, fmt.Errorf("score must be between 0 and %.1f", assignment.MaxPoints)
	}

	if err := s.SubmissionRepo.Grade(submissionID, *req.Score, req.Feedback, graderID); err != nil {
		return nil, err
	}
	return s.SubmissionRepo.FindByID(submissionID)
}

// AssignmentForSubmission 批改权限校验时回查作业归属
func (s *GradebookService) AssignmentForSubmission(submissionID uint) (*model.Assignment, error) {
	submission, err := s.SubmissionRepo.FindByID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubmissionMissing
		}
		return nil, err
	}
	return s.AssignmentRepo.FindByID(submission.AssignmentID)
}
