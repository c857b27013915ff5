package model

import (
	"time"
)

// Presentation 状态
const (
	StatusReady      = "ready"
	StatusGenerating = "generating"
	StatusFailed     = "failed"
)

// TitleSlideLayout 标题页的版式标记
const TitleSlideLayout = "title-slide"

// Template 幻灯片模板，Slides 保存模板 JSON 原文
type Template struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Key        string    `json:"key" gorm:"size:100;index"`
	Title      string    `json:"title" gorm:"size:255;not null"`
	Slides     string    `json:"slides" gorm:"type:text;not null"`
	PreviewURL string    `json:"preview_url" gorm:"size:500"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Template) TableName() string {
	return "templates"
}

type Presentation struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Topic       string    `json:"topic" gorm:"type:text;not null"`
	Title       string    `json:"title" gorm:"size:255"`
	Style       string    `json:"style" gorm:"size:50;default:minimal"`
	SlidesCount int       `json:"slides_count" gorm:"default:5"`
	LayoutOrder string    `json:"layout_order" gorm:"type:text"` // JSON 数组，创建时随机生成
	Status      string    `json:"status" gorm:"size:20;default:ready;index"`
	ErrorMsg    string    `json:"error_msg" gorm:"size:1000"`
	TemplateID  *uint     `json:"template_id" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Slides      []Slide   `json:"slides,omitempty" gorm:"foreignKey:PresentationID;constraint:OnDelete:CASCADE;"`
}

// TableName 指定表名
func (Presentation) TableName() string {
	return "presentations"
}

type Slide struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	PresentationID uint      `json:"presentation_id" gorm:"index;not null"`
	SlideNumber    int       `json:"slide_number" gorm:"not null"`
	Title          string    `json:"title" gorm:"size:255"`
	Content        string    `json:"content" gorm:"type:text"` // markdown，"- " 开头为列表项
	ImageURL       string    `json:"image_url" gorm:"size:1000"`
	ImageAlt       string    `json:"image_alt" gorm:"size:500"`
	Layout         string    `json:"layout" gorm:"size:50;default:title-content"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Slide) TableName() string {
	return "slides"
}
