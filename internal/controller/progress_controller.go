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

type ProgressController struct {
	ProgressService   *service.ProgressService
	ModuleService     *service.ModuleService
	EnrollmentService *service.EnrollmentService
}

func NewProgressController(
	progressService *service.ProgressService,
	moduleService *service.ModuleService,
	enrollmentService *service.EnrollmentService,
) *ProgressController {
	return &ProgressController{
		ProgressService:   progressService,
		ModuleService:     moduleService,
		EnrollmentService: enrollmentService,
	}
}

// requireEnrollment 学生必须已选课，教师和管理员不受限
func (c *ProgressController) requireEnrollment(ctx *gin.Context, claims *util.Claims, courseID uint) bool {
	if claims.Role != model.Student {
		return true
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

// CourseModules godoc
// @Summary 课程模块解锁状态
// @Description 按顺序返回课程各模块的解锁状态、进度和锁定提示
// @Tags 进度
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]service.ModuleUnlockInfo} "成功"
// @Failure 403 {object} util.Response "未选该课程"
// @Failure 503 {object} util.Response "进度存储不可用"
// @Router /api/courses/{id}/modules [get]
func (c *ProgressController) CourseModules(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if !c.requireEnrollment(ctx, claims, courseID) {
		return
	}

	infos, err := c.ProgressService.ListModulesUnlockInfo(courseID, claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrStoreUnavailable) {
			util.Error(ctx, 503, "progress store unavailable")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, infos)
}

// ModuleStatus godoc
// @Summary 单模块解锁状态
// @Tags 进度
// @Produce  json
// @Param   id path int true "模块ID"
// @Success 200 {object} util.Response{data=service.ModuleUnlockInfo} "成功"
// @Failure 404 {object} util.Response "模块不存在"
// @Failure 503 {object} util.Response "进度存储不可用"
// @Router /api/modules/{id}/status [get]
func (c *ProgressController) ModuleStatus(ctx *gin.Context) {
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
	if !c.requireEnrollment(ctx, claims, module.CourseID) {
		return
	}

	info, err := c.ProgressService.GetModuleUnlockInfo(moduleID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrModuleNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrStoreUnavailable):
			util.Error(ctx, 503, "progress store unavailable")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, info)
}

// ViewResponse 查看事件回执
// swagger:model ViewResponse
type ViewResponse struct {
	Tracked bool                      `json:"tracked"`
	Result  *service.CompletionResult `json:"result,omitempty"`
}

// RecordView godoc
// @Summary 记录内容查看
// @Description 幂等记录一次内容查看，返回最新进度和可能的完成/解锁通知。
// @Description 进度存储不可用时不阻断学习，返回 tracked=false。
// @Tags 进度
// @Produce  json
// @Param   id path int true "模块ID"
// @Param   contentId path int true "内容ID"
// @Success 200 {object} util.Response{data=ViewResponse} "成功"
// @Failure 403 {object} util.Response "模块被锁定"
// @Failure 404 {object} util.Response "模块或内容不存在"
// @Router /api/modules/{id}/content/{contentId}/view [post]
func (c *ProgressController) RecordView(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	moduleID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	contentID, ok := parseIDParam(ctx, "contentId")
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
	if !c.requireEnrollment(ctx, claims, module.CourseID) {
		return
	}

	// 被锁模块的查看一律拒绝，解锁判定不确定时也按锁定处理
	info, err := c.ProgressService.GetModuleUnlockInfo(moduleID, claims.UserID)
	if err != nil || !info.IsUnlocked {
		if err != nil && !errors.Is(err, util.ErrStoreUnavailable) && !errors.Is(err, util.ErrModuleNotFound) {
			util.LogInternalError(ctx, err)
			return
		}
		util.Error(ctx, 403, util.ErrModuleLocked.Error())
		return
	}

	result, err := c.ProgressService.RecordContentViewed(claims.UserID, moduleID, contentID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrModuleNotFound), errors.Is(err, util.ErrContentNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrStoreUnavailable):
			// 写路径失败只记日志，不把存储故障变成学生的错误页
			logger.Log.Error("content view not recorded",
				zap.Uint("userId", claims.UserID),
				zap.Uint("moduleId", moduleID),
				zap.Uint("contentId", contentID),
				zap.Error(err))
			util.Success(ctx, ViewResponse{Tracked: false})
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, ViewResponse{Tracked: true, Result: result})
}
