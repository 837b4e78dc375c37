package controller

import (
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AssignmentController struct {
	AssignmentService *service.AssignmentService
	ModuleService     *service.ModuleService
	CourseService     *service.CourseService
	EnrollmentService *service.EnrollmentService
}

func NewAssignmentController(
	assignmentService *service.AssignmentService,
	moduleService *service.ModuleService,
	courseService *service.CourseService,
	enrollmentService *service.EnrollmentService,
) *AssignmentController {
	return &AssignmentController{
		AssignmentService: assignmentService,
		ModuleService:     moduleService,
		CourseService:     courseService,
		EnrollmentService: enrollmentService,
	}
}

func (c *AssignmentController) moduleForWrite(ctx *gin.Context, moduleID uint) *model.CourseModule {
	module, err := c.ModuleService.GetByID(moduleID)
	if err != nil {
		if errors.Is(err, util.ErrModuleNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return nil
	}
	course, err := c.CourseService.GetByID(module.CourseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return nil
	}
	if !canManageCourse(util.GetUserFromContext(ctx), course) {
		util.Forbidden(ctx)
		return nil
	}
	return module
}

// CreateAssignment godoc
// @Summary 创建作业
// @Tags 作业
// @Accept  json
// @Produce  json
// @Param   id path int true "模块ID"
// @Param   body body service.CreateAssignmentRequest true "作业信息"
// @Success 201 {object} util.Response{data=model.Assignment} "创建成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/modules/{id}/assignments [post]
func (c *AssignmentController) CreateAssignment(ctx *gin.Context) {
	moduleID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if c.moduleForWrite(ctx, moduleID) == nil {
		return
	}

	var req service.CreateAssignmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	assignment, err := c.AssignmentService.Create(moduleID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, assignment)
}

// ListAssignments godoc
// @Summary 模块作业列表
// @Description 学生视角受解锁门控，教师看全量
// @Tags 作业
// @Produce  json
// @Param   id path int true "模块ID"
// @Success 200 {object} util.Response{data=[]model.Assignment} "成功"
// @Failure 403 {object} util.Response "模块被锁定"
// @Router /api/modules/{id}/assignments [get]
func (c *AssignmentController) ListAssignments(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	moduleID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	module, err := c.ModuleService.GetByID(moduleID)
	if err != nil {
		if errors.Is(err, util.ErrModuleNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	if claims.Role != model.Student {
		course, err := c.CourseService.GetByID(module.CourseID)
		if err == nil && canManageCourse(claims, course) {
			assignments, err := c.AssignmentService.ListForInstructor(moduleID)
			if err != nil {
				util.LogInternalError(ctx, err)
				return
			}
			util.Success(ctx, assignments)
			return
		}
	}

	enrolled, err := c.EnrollmentService.IsEnrolled(claims.UserID, module.CourseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if !enrolled {
		util.Forbidden(ctx)
		return
	}

	assignments, err := c.AssignmentService.ListForStudent(moduleID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrModuleLocked):
			util.Error(ctx, 403, err.Error())
		case errors.Is(err, util.ErrStoreUnavailable):
			util.Error(ctx, 503, "progress store unavailable")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, assignments)
}

// UpdateAssignment godoc
// @Summary 更新作业
// @Tags 作业
// @Accept  json
// @Produce  json
// @Param   id path int true "作业ID"
// @Param   body body service.UpdateAssignmentRequest true "更新内容"
// @Success 200 {object} util.Response{data=model.Assignment} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/assignments/{id} [put]
func (c *AssignmentController) UpdateAssignment(ctx *gin.Context) {
	assignmentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	assignment, err := c.AssignmentService.GetByID(assignmentID)
	if err != nil {
		if errors.Is(err, util.ErrAssignmentNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	if c.moduleForWrite(ctx, assignment.ModuleID) == nil {
		return
	}

	var req service.UpdateAssignmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	updated, err := c.AssignmentService.Update(assignment, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, updated)
}

// DeleteAssignment godoc
// @Summary 删除作业
// @Tags 作业
// @Produce  json
// @Param   id path int true "作业ID"
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/assignments/{id} [delete]
func (c *AssignmentController) DeleteAssignment(ctx *gin.Context) {
	assignmentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	assignment, err := c.AssignmentService.GetByID(assignmentID)
	if err != nil {
		if errors.Is(err, util.ErrAssignmentNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	if c.moduleForWrite(ctx, assignment.ModuleID) == nil {
		return
	}

	if err := c.AssignmentService.Delete(assignmentID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Submit godoc
// @Summary 提交作业
// @Description 重复提交覆盖旧内容并清空评分；提交计入模块进度
// @Tags 作业
// @Accept  json
// @Produce  json
// @Param   id path int true "作业ID"
// @Param   body body service.SubmitRequest true "提交内容"
// @Success 200 {object} util.Response{data=service.SubmitResult} "成功"
// @Failure 403 {object} util.Response "模块被锁定"
// @Failure 404 {object} util.Response "作业不存在"
// @Failure 410 {object} util.Response "作业已截止"
// @Router /api/assignments/{id}/submit [post]
func (c *AssignmentController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	assignmentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req service.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Body == "" && req.FileURL == "" {
		util.BadRequest(ctx, "submission body or file is required")
		return
	}

	assignment, err := c.AssignmentService.GetByID(assignmentID)
	if err != nil {
		if errors.Is(err, util.ErrAssignmentNotFound) {
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
	enrolled, err := c.EnrollmentService.IsEnrolled(claims.UserID, module.CourseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if !enrolled {
		util.Forbidden(ctx)
		return
	}

	result, err := c.AssignmentService.Submit(claims.UserID, assignmentID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAssignmentNotFound), errors.Is(err, util.ErrModuleNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrModuleLocked):
			util.Error(ctx, 403, err.Error())
		case errors.Is(err, util.ErrAssignmentClosed):
			util.Error(ctx, 410, err.Error())
		case errors.Is(err, util.ErrStoreUnavailable):
			util.Error(ctx, 503, "progress store unavailable")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// MySubmission godoc
// @Summary 我的作业提交
// @Tags 作业
// @Produce  json
// @Param   id path int true "作业ID"
// @Success 200 {object} util.Response{data=model.AssignmentSubmission} "成功"
// @Failure 404 {object} util.Response "尚未提交"
// @Router /api/assignments/{id}/submission [get]
func (c *AssignmentController) MySubmission(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	assignmentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	submission, err := c.AssignmentService.MySubmission(claims.UserID, assignmentID)
	if err != nil {
		if errors.Is(err, util.ErrSubmissionMissing) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, submission)
}

// ListSubmissions godoc
// @Summary 作业提交列表(教师)
// @Tags 作业
// @Produce  json
// @Param   id path int true "作业ID"
// @Success 200 {object} util.Response{data=[]model.AssignmentSubmission} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/assignments/{id}/submissions [get]
func (c *AssignmentController) ListSubmissions(ctx *gin.Context) {
	assignmentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	assignment, err := c.AssignmentService.GetByID(assignmentID)
	if err != nil {
		if errors.Is(err, util.ErrAssignmentNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	if c.moduleForWrite(ctx, assignment.ModuleID) == nil {
		return
	}

	submissions, err := c.AssignmentService.ListSubmissions(assignmentID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, submissions)
}
