package controller

import (
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DiscussionController struct {
	DiscussionService *service.DiscussionService
	CourseService     *service.CourseService
	EnrollmentService *service.EnrollmentService
}

func NewDiscussionController(
	discussionService *service.DiscussionService,
	courseService *service.CourseService,
	enrollmentService *service.EnrollmentService,
) *DiscussionController {
	return &DiscussionController{
		DiscussionService: discussionService,
		CourseService:     courseService,
		EnrollmentService: enrollmentService,
	}
}

// requireCourseAccess 讨论区访问：学生须已选课，教师须有管理权
func (c *DiscussionController) requireCourseAccess(ctx *gin.Context, claims *util.Claims, courseID uint) bool {
	if claims.Role != model.Student {
		course, err := c.CourseService.GetByID(courseID)
		if err != nil {
			util.NotFound(ctx)
			return false
		}
		if canManageCourse(claims, course) {
			return true
		}
	}
	enrolled, err := c.EnrollmentService.IsEnrolled(claims.UserID, courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return false
	}
	if !enrolled {
		util.Forbidden(ctx)
		return false
	}
	return true
}

// ListThreads godoc
// @Summary 课程讨论列表
// @Tags 讨论
// @Produce  json
// @Param   id path int true "课程ID"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/courses/{id}/threads [get]
func (c *DiscussionController) ListThreads(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if !c.requireCourseAccess(ctx, claims, courseID) {
		return
	}

	page, limit := parsePagination(ctx)
	threads, total, err := c.DiscussionService.ListThreads(ctx.Request.Context(), courseID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: threads, Total: total, Page: page, Limit: limit})
}

// CreateThread godoc
// @Summary 发起讨论
// @Tags 讨论
// @Accept  json
// @Produce  json
// @Param   id path int true "课程ID"
// @Param   body body service.CreateThreadRequest true "讨论内容"
// @Success 201 {object} util.Response{data=model.DiscussionThread} "创建成功"
// @Router /api/courses/{id}/threads [post]
func (c *DiscussionController) CreateThread(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if !c.requireCourseAccess(ctx, claims, courseID) {
		return
	}

	var req service.CreateThreadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	thread, err := c.DiscussionService.CreateThread(courseID, claims.UserID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, thread)
}

// GetThread godoc
// @Summary 讨论详情
// @Description 返回讨论及全部回复，并累加浏览计数
// @Tags 讨论
// @Produce  json
// @Param   id path int true "讨论ID"
// @Success 200 {object} util.Response{data=service.ThreadWithViews} "成功"
// @Failure 404 {object} util.Response "讨论不存在"
// @Router /api/threads/{id} [get]
func (c *DiscussionController) GetThread(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	threadID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	thread, err := c.DiscussionService.GetThreadByID(threadID)
	if err != nil {
		if errors.Is(err, util.ErrThreadNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	if !c.requireCourseAccess(ctx, claims, thread.CourseID) {
		return
	}

	detail, err := c.DiscussionService.GetThread(ctx.Request.Context(), threadID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// Reply godoc
// @Summary 回复讨论
// @Tags 讨论
// @Accept  json
// @Produce  json
// @Param   id path int true "讨论ID"
// @Param   body body service.ReplyRequest true "回复内容"
// @Success 201 {object} util.Response{data=model.DiscussionReply} "创建成功"
// @Failure 404 {object} util.Response "讨论不存在"
// @Router /api/threads/{id}/replies [post]
func (c *DiscussionController) Reply(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	threadID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	thread, err := c.DiscussionService.GetThreadByID(threadID)
	if err != nil {
		if errors.Is(err, util.ErrThreadNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	if !c.requireCourseAccess(ctx, claims, thread.CourseID) {
		return
	}

	var req service.ReplyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	reply, err := c.DiscussionService.Reply(threadID, claims.UserID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, reply)
}

// PinThread godoc
// @Summary 置顶/取消置顶讨论
// @Tags 讨论
// @Produce  json
// @Param   id path int true "讨论ID"
// @Param   pinned query bool false "是否置顶，默认true"
// @Success 200 {object} util.Response{data=model.DiscussionThread} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/threads/{id}/pin [put]
func (c *DiscussionController) PinThread(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	threadID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	thread, err := c.DiscussionService.GetThreadByID(threadID)
	if err != nil {
		if errors.Is(err, util.ErrThreadNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	course, err := c.CourseService.GetByID(thread.CourseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if !canManageCourse(claims, course) {
		util.Forbidden(ctx)
		return
	}

	pinned := ctx.DefaultQuery("pinned", "true") == "true"
	updated, err := c.DiscussionService.PinThread(threadID, pinned)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, updated)
}

// DeleteThread godoc
// @Summary 删除讨论
// @Description 作者本人、课程教师或管理员可删除
// @Tags 讨论
// @Produce  json
// @Param   id path int true "讨论ID"
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/threads/{id} [delete]
func (c *DiscussionController) DeleteThread(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	threadID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	thread, err := c.DiscussionService.GetThreadByID(threadID)
	if err != nil {
		if errors.Is(err, util.ErrThreadNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	allowed := thread.AuthorID == claims.UserID
	if !allowed {
		if course, err := c.CourseService.GetByID(thread.CourseID); err == nil {
			allowed = canManageCourse(claims, course)
		}
	}
	if !allowed {
		util.Forbidden(ctx)
		return
	}

	if err := c.DiscussionService.DeleteThread(threadID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// DeleteReply godoc
// @Summary 删除回复
// @Tags 讨论
// @Produce  json
// @Param   id path int true "回复ID"
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/replies/{id} [delete]
func (c *DiscussionController) DeleteReply(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	replyID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	reply, err := c.DiscussionService.GetReply(replyID)
	if err != nil {
		util.NotFound(ctx)
		return
	}

	allowed := reply.AuthorID == claims.UserID
	if !allowed {
		if thread, err := c.DiscussionService.GetThreadByID(reply.ThreadID); err == nil {
			if course, err := c.CourseService.GetByID(thread.CourseID); err == nil {
				allowed = canManageCourse(claims, course)
			}
		}
	}
	if !allowed {
		util.Forbidden(ctx)
		return
	}

	if err := c.DiscussionService.DeleteReply(replyID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
