package controller

import (
	"errors"
	"lms_backend/internal/model"
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ContentController struct {
	ContentService    *service.ContentService
	ModuleService     *service.ModuleService
	CourseService     *service.CourseService
	EnrollmentService *service.EnrollmentService
	ProgressService   *service.ProgressService
}

func NewContentController(
	contentService *service.ContentService,
	moduleService *service.ModuleService,
	courseService *service.CourseService,
	enrollmentService *service.EnrollmentService,
	progressService *service.ProgressService,
) *ContentController {
	return &ContentController{
		ContentService:    contentService,
		ModuleService:     moduleService,
		CourseService:     courseService,
		EnrollmentService: enrollmentService,
		ProgressService:   progressService,
	}
}

// moduleForWrite 内容写操作的模块归属与权限校验
func (c *ContentController) moduleForWrite(ctx *gin.Context, moduleID uint) *model.CourseModule {
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

// CreateContent godoc
// @Summary 创建文本/链接内容
// @Tags 内容
// @Accept  json
// @Produce  json
// @Param   id path int true "模块ID"
// @Param   body body service.CreateContentRequest true "内容信息"
// @Success 201 {object} util.Response{data=model.ContentItem} "创建成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/modules/{id}/content [post]
func (c *ContentController) CreateContent(ctx *gin.Context) {
	moduleID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if c.moduleForWrite(ctx, moduleID) == nil {
		return
	}

	var req service.CreateContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	item, err := c.ContentService.Create(moduleID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, item)
}

// UploadContent godoc
// @Summary 上传视频或文档内容
// @Description 视频自动探测时长并生成缩略图
// @Tags 内容
// @Accept  multipart/form-data
// @Produce  json
// @Param   id path int true "模块ID"
// @Param   title formData string true "内容标题"
// @Param   file formData file true "文件"
// @Success 201 {object} util.Response{data=model.ContentItem} "创建成功"
// @Failure 400 {object} util.Response "文件类型不支持"
// @Router /api/modules/{id}/content/upload [post]
func (c *ContentController) UploadContent(ctx *gin.Context) {
	moduleID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if c.moduleForWrite(ctx, moduleID) == nil {
		return
	}

	title := ctx.PostForm("title")
	if title == "" {
		util.BadRequest(ctx, "title is required")
		return
	}
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	item, err := c.ContentService.Upload(ctx.Request.Context(), moduleID, title, file)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, item)
}

// ListContent godoc
// @Summary 模块内容列表(学生视角)
// @Description 模块被锁时返回403，绝不返回内容本体
// @Tags 内容
// @Produce  json
// @Param   id path int true "模块ID"
// @Success 200 {object} util.Response{data=[]model.ContentItem} "成功"
// @Failure 403 {object} util.Response "模块被锁定"
// @Failure 404 {object} util.Response "模块不存在"
// @Router /api/modules/{id}/content [get]
func (c *ContentController) ListContent(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	moduleID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	// 教师和管理员看全量列表
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
			items, err := c.ContentService.ListForInstructor(moduleID)
			if err != nil {
				util.LogInternalError(ctx, err)
				return
			}
			util.Success(ctx, items)
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

	items, err := c.ContentService.ListForStudent(moduleID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrModuleLocked):
			util.Error(ctx, 403, err.Error())
		case errors.Is(err, util.ErrModuleNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrStoreUnavailable):
			util.Error(ctx, 503, "progress store unavailable")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, items)
}

// GetContent godoc
// @Summary 读取单个内容
// @Description 所属模块被锁时返回403
// @Tags 内容
// @Produce  json
// @Param   id path int true "内容ID"
// @Success 200 {object} util.Response{data=model.ContentItem} "成功"
// @Failure 403 {object} util.Response "模块被锁定"
// @Failure 404 {object} util.Response "内容不存在"
// @Router /api/content/{id} [get]
func (c *ContentController) GetContent(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	contentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	item, err := c.ContentService.GetForStudent(contentID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrModuleLocked):
			util.Error(ctx, 403, err.Error())
		case errors.Is(err, util.ErrContentNotFound), errors.Is(err, util.ErrModuleNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrStoreUnavailable):
			util.Error(ctx, 503, "progress store unavailable")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	// 学生读取即顺带记一次查看，失败不影响内容返回
	if claims.Role == model.Student {
		if _, err := c.ProgressService.RecordContentViewed(claims.UserID, item.ModuleID, contentID); err != nil {
			logger.Log.Warn("content view not recorded on read",
				zap.Uint("userId", claims.UserID),
				zap.Uint("contentId", contentID),
				zap.Error(err))
		}
	}

	util.Success(ctx, item)
}

// UpdateContent godoc
// @Summary 更新内容
// @Tags 内容
// @Accept  json
// @Produce  json
// @Param   id path int true "内容ID"
// @Param   body body service.UpdateContentRequest true "更新内容"
// @Success 200 {object} util.Response{data=model.ContentItem} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/content/{id} [put]
func (c *ContentController) UpdateContent(ctx *gin.Context) {
	contentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	item, err := c.ContentService.GetByID(contentID)
	if err != nil {
		if errors.Is(err, util.ErrContentNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	if c.moduleForWrite(ctx, item.ModuleID) == nil {
		return
	}

	var req service.UpdateContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	updated, err := c.ContentService.Update(item, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, updated)
}

// DeleteContent godoc
// @Summary 删除内容
// @Tags 内容
// @Produce  json
// @Param   id path int true "内容ID"
// @Success 200 {object} util.Response "成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/content/{id} [delete]
func (c *ContentController) DeleteContent(ctx *gin.Context) {
	contentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	item, err := c.ContentService.GetByID(contentID)
	if err != nil {
		if errors.Is(err, util.ErrContentNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	if c.moduleForWrite(ctx, item.ModuleID) == nil {
		return
	}

	if err := c.ContentService.Delete(contentID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
