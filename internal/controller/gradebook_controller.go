package controller

import (
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GradebookController struct {
	GradebookService  *service.GradebookService
	CourseService     *service.CourseService
	ModuleService     *service.ModuleService
	EnrollmentService *service.EnrollmentService
}

func NewGradebookController(
	gradebookService *service.GradebookService,
	courseService *service.CourseService,
	moduleService *service.ModuleService,
	enrollmentService *service.EnrollmentService,
) *GradebookController {
	return &GradebookController{
		GradebookService:  gradebookService,
		CourseService:     courseService,
		ModuleService:     moduleService,
		EnrollmentService: enrollmentService,
	}
}

// MyGrades godoc
// @Summary 我的课程成绩
// @Description 列出课程全部已发布作业的提交与评分状态
// @Tags 成绩
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]service.GradeEntry} "成功"
// @Failure 403 {object} util.Response "未选该课程"
// @Router /api/courses/{id}/grades [get]
func (c *GradebookController) MyGrades(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	enrolled, err := c.EnrollmentService.IsEnrolled(claims.UserID, courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if !enrolled && claims.Role == model.Student {
		util.Forbidden(ctx)
		return
	}

	entries, err := c.GradebookService.StudentGrades(claims.UserID, courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}

// CourseGradebook godoc
// @Summary 课程成绩册(教师)
// @Description 全部学生在全部作业上的得分矩阵与每题均分
// @Tags 成绩
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseGradebookView} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/courses/{id}/gradebook [get]
func (c *GradebookController) CourseGradebook(ctx *gin.Context) {
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	course, err := c.CourseService.GetByID(courseID)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	if !canManageCourse(util.GetUserFromContext(ctx), course) {
		util.Forbidden(ctx)
		return
	}

	view, err := c.GradebookService.CourseGradebook(courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// GradeSubmission godoc
// @Summary 批改提交
// @Description 分数必须在 [0, 作业满分] 内
// @Tags 成绩
// @Accept  json
// @Produce  json
// @Param   id path int true "提交ID"
// @Param   body body service.GradeRequest true "评分与反馈"
// @Success 200 {object} util.Response{data=model.AssignmentSubmission} "成功"
// @Failure 400 {object} util.Response "分数越界"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "提交不存在"
// @Router /api/submissions/{id}/grade [post]
func (c *GradebookController) GradeSubmission(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	submissionID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	// 通过提交回查作业与课程，校验批改人是否有权限
	assignment, err := c.GradebookService.AssignmentForSubmission(submissionID)
	if err != nil {
		if errors.Is(err, util.ErrSubmissionMissing) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	module, err := c.ModuleService.GetByID(assignment.ModuleID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	course, err := c.CourseService.GetByID(module.CourseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if !canManageCourse(claims, course) {
		util.Forbidden(ctx)
		return
	}

	var req service.GradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	submission, err := c.GradebookService.Grade(submissionID, claims.UserID, req)
	if err != nil {
		if errors.Is(err, util.ErrSubmissionMissing) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, submission)
}
