package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	AdminService *service.AdminService
	UserService  *service.UserService
}

func NewAdminController(adminService *service.AdminService, userService *service.UserService) *AdminController {
	return &AdminController{
		AdminService: adminService,
		UserService:  userService,
	}
}

// Stats godoc
// @Summary 平台统计
// @Tags 管理
// @Produce  json
// @Success 200 {object} util.Response{data=service.PlatformStats} "成功"
// @Router /api/admin/stats [get]
func (c *AdminController) Stats(ctx *gin.Context) {
	stats, err := c.AdminService.Stats()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// ListUsers godoc
// @Summary 用户列表
// @Tags 管理
// @Produce  json
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Param   search query string false "姓名或邮箱搜索"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/admin/users [get]
func (c *AdminController) ListUsers(ctx *gin.Context) {
	page, limit := parsePagination(ctx)
	search := ctx.Query("search")

	users, total, err := c.UserService.List(page, limit, search)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: users, Total: total, Page: page, Limit: limit})
}

// SetUserDisabled godoc
// @Summary 启用/禁用用户
// @Tags 管理
// @Produce  json
// @Param   id path int true "用户ID"
// @Param   disabled query bool true "是否禁用"
// @Success 200 {object} util.Response "成功"
// @Router /api/admin/users/{id}/disabled [put]
func (c *AdminController) SetUserDisabled(ctx *gin.Context) {
	userID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	disabled, err := strconv.ParseBool(ctx.Query("disabled"))
	if err != nil {
		util.BadRequest(ctx, "invalid disabled flag")
		return
	}

	if err := c.UserService.SetDisabled(userID, disabled); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
