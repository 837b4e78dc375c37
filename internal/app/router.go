package app

import (
	"lms_backend/docs"
	"lms_backend/internal/config"
	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, s *services, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 课程目录对游客可见，登录用户能看到更多
		public.GET("/courses", middleware.TryAuthMiddleware(cfg), c.course.ListCourses)
		public.GET("/courses/:id", middleware.TryAuthMiddleware(cfg), c.course.GetCourse)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg, s.auth), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerInstructorRoutes(authGroup, c)
	}

	// 3. 管理员路由
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg, s.auth), middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/stats", c.admin.Stats)
		admin.GET("/users", c.admin.ListUsers)
		admin.PUT("/users/:id/disabled", c.admin.SetUserDisabled)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/logout", c.auth.Logout)
	rg.GET("/profile", c.auth.GetProfile)
	rg.PUT("/user/profile", c.user.UpdateProfile)

	// 选课
	rg.GET("/my/courses", c.enrollment.MyCourses)
	rg.POST("/courses/:id/enroll", c.enrollment.Enroll)
	rg.DELETE("/courses/:id/enroll", c.enrollment.Unenroll)

	// 模块解锁与进度
	rg.GET("/courses/:id/modules", c.progress.CourseModules)
	rg.GET("/modules/:id/status", c.progress.ModuleStatus)
	rg.POST("/modules/:id/content/:contentId/view", c.progress.RecordView)

	// 内容与作业(解锁门控)
	rg.GET("/modules/:id/content", c.content.ListContent)
	rg.GET("/content/:id", c.content.GetContent)
	rg.GET("/modules/:id/assignments", c.assignment.ListAssignments)
	rg.POST("/assignments/:id/submit", c.assignment.Submit)
	rg.GET("/assignments/:id/submission", c.assignment.MySubmission)

	// 成绩
	rg.GET("/courses/:id/grades", c.gradebook.MyGrades)

	// 讨论
	rg.GET("/courses/:id/threads", c.discussion.ListThreads)
	rg.POST("/courses/:id/threads", c.discussion.CreateThread)
	rg.GET("/threads/:id", c.discussion.GetThread)
	rg.POST("/threads/:id/replies", c.discussion.Reply)
	rg.DELETE("/threads/:id", c.discussion.DeleteThread)
	rg.DELETE("/replies/:id", c.discussion.DeleteReply)

	// 公告
	rg.GET("/courses/:id/announcements", c.course.ListAnnouncements)
}

func (a *App) registerInstructorRoutes(rg *gin.RouterGroup, c *controllers) {
	instructor := rg.Group("/")
	instructor.Use(middleware.RoleMiddleware(model.Instructor))
	{
		// 课程管理
		instructor.POST("/courses", c.course.CreateCourse)
		instructor.PUT("/courses/:id", c.course.UpdateCourse)
		instructor.DELETE("/courses/:id", c.course.DeleteCourse)
		instructor.GET("/teaching/courses", c.course.MyCourses)
		instructor.GET("/courses/:id/students", c.enrollment.Roster)

		// 模块管理
		instructor.POST("/courses/:id/modules", c.module.CreateModule)
		instructor.GET("/courses/:id/modules/manage", c.module.ListModules)
		instructor.PUT("/courses/:id/modules/reorder", c.module.ReorderModules)
		instructor.PUT("/modules/:id", c.module.UpdateModule)
		instructor.DELETE("/modules/:id", c.module.DeleteModule)

		// 内容管理
		instructor.POST("/modules/:id/content", c.content.CreateContent)
		instructor.POST("/modules/:id/content/upload", c.content.UploadContent)
		instructor.PUT("/content/:id", c.content.UpdateContent)
		instructor.DELETE("/content/:id", c.content.DeleteContent)

		// 作业管理与批改
		instructor.POST("/modules/:id/assignments", c.assignment.CreateAssignment)
		instructor.PUT("/assignments/:id", c.assignment.UpdateAssignment)
		instructor.DELETE("/assignments/:id", c.assignment.DeleteAssignment)
		instructor.GET("/assignments/:id/submissions", c.assignment.ListSubmissions)
		instructor.POST("/submissions/:id/grade", c.gradebook.GradeSubmission)
		instructor.GET("/courses/:id/gradebook", c.gradebook.CourseGradebook)

		// 公告与讨论管理
		instructor.POST("/courses/:id/announcements", c.course.CreateAnnouncement)
		instructor.DELETE("/announcements/:id", c.course.DeleteAnnouncement)
		instructor.PUT("/threads/:id/pin", c.discussion.PinThread)
	}
}
