package controller

import (
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ModuleController struct {
	ModuleService *service.ModuleService
	CourseService *service.CourseService
}

func NewModuleController(moduleService *service.ModuleService, courseService *service.CourseService) *ModuleController {
	return &ModuleController{
		ModuleService: moduleService,
		CourseService: courseService,
	}
}

// courseForModuleWrite 写操作前的归属与权限校验
func (c *ModuleController) courseForModuleWrite(ctx *gin.Context, courseID uint) *model.Course {
	course, err := c.CourseService.GetByID(courseID)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return nil
	}
	if !canManageCourse(util.GetUserFromContext(ctx), course) {
		util.Forbidden(ctx)
		return nil
	}
	return course
}

// CreateModule godoc
// @Summary 创建模块
// @Description 新模块追加到课程序列末尾
// @Tags 模块
// @Accept  json
// @Produce  json
// @Param   id path int true "课程ID"
// @Param   body body service.CreateModuleRequest true "模块信息"
// @Success 201 {object} util.Response{data=model.CourseModule} "创建成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/courses/{id}/modules [post]
func (c *ModuleController) CreateModule(ctx *gin.Context) {
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if c.courseForModuleWrite(ctx, courseID) == nil {
		return
	}

	var req service.CreateModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	module, err := c.ModuleService.Create(courseID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, module)
}

// ListModules godoc
// @Summary 模块列表(教师视角)
// @Description 返回课程全部模块，含未发布
// @Tags 模块
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.CourseModule} "成功"
// @Router /api/courses/{id}/modules/manage [get]
func (c *ModuleController) ListModules(ctx *gin.Context) {
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if c.courseForModuleWrite(ctx, courseID) == nil {
		return
	}

	modules, err := c.ModuleService.ListByCourse(courseID, false)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, modules)
}

// UpdateModule godoc
// @Summary 更新模块
// @Tags 模块
// @Accept  json
// @Produce  json
// @Param   id path int true "模块ID"
// @Param   body body service.UpdateModuleRequest true "更新内容"
// @Success 200 {object} util.Response{data=model.CourseModule} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Failure 404 {object} util.Response "模块不存在"
// @Router /api/modules/{id} [put]
func (c *ModuleController) UpdateModule(ctx *gin.Context) {
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
	if c.courseForModuleWrite(ctx, module.CourseID) == nil {
		return
	}

	var req service.UpdateModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	updated, err := c.ModuleService.Update(module, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, updated)
}

// DeleteModule godoc
// @Summary 删除模块
// @Tags 模块
// @Produce  json
// @Param   id path int true "模块ID"
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/modules/{id} [delete]
func (c *ModuleController) DeleteModule(ctx *gin.Context) {
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
	if c.courseForModuleWrite(ctx, module.CourseID) == nil {
		return
	}

	if err := c.ModuleService.Delete(moduleID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ReorderRequest 模块重排请求，必须给出课程全部模块ID
// swagger:model ReorderRequest
type ReorderRequest struct {
	OrderedIDs []uint `json:"orderedIds" binding:"required"`
}

// ReorderModules godoc
// @Summary 重排课程模块
// @Description 按给出的ID顺序重写 orderIndex
// @Tags 模块
// @Accept  json
// @Produce  json
// @Param   id path int true "课程ID"
// @Param   body body ReorderRequest true "完整模块ID序列"
// @Success 200 {object} util.Response{data=[]model.CourseModule} "成功"
// @Failure 400 {object} util.Response "ID序列与课程模块不一致"
// @Router /api/courses/{id}/modules/reorder [put]
func (c *ModuleController) ReorderModules(ctx *gin.Context) {
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if c.courseForModuleWrite(ctx, courseID) == nil {
		return
	}

	var req ReorderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.ModuleService.Reorder(courseID, req.OrderedIDs); err != nil {
		if errors.Is(err, util.ErrInvalidModuleSeq) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	modules, err := c.ModuleService.ListByCourse(courseID, false)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, modules)
}
