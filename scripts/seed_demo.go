// 本地开发用演示数据脚本
//
// 创建一名示例教师、一门已发布课程和一条模块链（内容+作业），
// 方便前端联调顺序解锁流程。重复执行按邮箱/标题跳过已存在的数据。
//
// 用法: go run scripts/seed_demo.go

package main

import (
	"errors"
	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/pkg/database"
	"lms_backend/pkg/logger"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	instructor := seedInstructor(db)
	course := seedCourse(db, instructor.ID)
	seedModules(db, course.ID)

	log.Println("演示数据就绪")
}

func seedInstructor(db *gorm.DB) *model.User {
	var user model.User
	err := db.Where("email = ?", "instructor@lms.local").First(&user).Error
	if err == nil {
		return &user
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("查询示例教师失败: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("instructor123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("密码加密失败: %v", err)
	}
	user = model.User{
		Name:     "Demo Instructor",
		Email:    "instructor@lms.local",
		Password: string(hash),
		Role:     model.Instructor,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("创建示例教师失败: %v", err)
	}
	return &user
}

func seedCourse(db *gorm.DB, instructorID uint) *model.Course {
	var course model.Course
	err := db.Where("title = ?", "Go 入门").First(&course).Error
	if err == nil {
		return &course
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("查询示例课程失败: %v", err)
	}

	course = model.Course{
		Title:        "Go 入门",
		Description:  "顺序解锁演示课程",
		InstructorID: instructorID,
		IsPublished:  true,
	}
	if err := db.Create(&course).Error; err != nil {
		log.Fatalf("创建示例课程失败: %v", err)
	}
	return &course
}

func seedModules(db *gorm.DB, courseID uint) {
	var count int64
	if err := db.Model(&model.CourseModule{}).Where("course_id = ?", courseID).Count(&count).Error; err != nil {
		log.Fatalf("统计课程模块失败: %v", err)
	}
	if count > 0 {
		return
	}

	titles := []string{"基础语法", "并发模型", "标准库实战"}
	for i, title := range titles {
		module := model.CourseModule{
			CourseID:         courseID,
			Title:            title,
			OrderIndex:       i,
			RequiresPrevious: true,
			IsPublished:      true,
		}
		if err := db.Create(&module).Error; err != nil {
			log.Fatalf("创建模块失败: %v", err)
		}

		content := model.ContentItem{
			ModuleID:    module.ID,
			Title:       title + " 讲义",
			Type:        model.ContentText,
			Body:        "演示内容",
			IsPublished: true,
		}
		if err := db.Create(&content).Error; err != nil {
			log.Fatalf("创建内容失败: %v", err)
		}

		assignment := model.Assignment{
			ModuleID:    module.ID,
			Title:       title + " 练习",
			MaxPoints:   100,
			IsPublished: true,
		}
		if err := db.Create(&assignment).Error; err != nil {
			log.Fatalf("创建作业失败: %v", err)
		}
	}
}
