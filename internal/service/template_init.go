package service

import (
	"github.com/slidesmith/backend/internal/model"
	"gorm.io/gorm"
)

// 预置模板：列表形态字段，包含标题页、内容页与结束页
const simpleBusinessTemplate = `{
  "id": "simple_business_presentation",
  "title": "Simple Business Presentation",
  "slides": [
    {
      "id": "title_slide",
      "title": "Title Slide",
      "fields": [
        {"id": "title", "type": "string", "value": "Business Presentation"},
        {"id": "subtitle", "type": "string", "value": "A simple overview"}
      ]
    },
    {
      "id": "content_slide",
      "title": "Main Content",
      "fields": [
        {"id": "content", "type": "string", "value": "This is the main content of the presentation."},
        {"id": "points", "type": "list", "value": ["Market overview", "Key results", "Next steps"]},
        {"id": "image", "type": "image", "value": {"query": "business meeting", "title": "Team at work"}}
      ]
    },
    {
      "id": "conclusion_slide",
      "title": "Conclusion",
      "fields": [
        {"id": "conclusion", "type": "string", "value": "Thank you for your attention!"}
      ]
    }
  ]
}`

// InitDefaultTemplates 初始化预置模板数据
func InitDefaultTemplates(db *gorm.DB) error {
	// 检查是否已存在预置模板
	var count int64
	if err := db.Model(&model.Template{}).Where("`key` = ?", "simple_business_presentation").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	parsed, err := parseTemplateJSON([]byte(simpleBusinessTemplate))
	if err != nil {
		return err
	}
	return db.Create(&model.Template{
		Key:    "simple_business_presentation",
		Title:  parsed.Title,
		Slides: simpleBusinessTemplate,
	}).Error
}
