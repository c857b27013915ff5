package pptx

import (
	"errors"
	"fmt"

	ppt "github.com/VantageDataChat/GoPPT"
	"github.com/slidesmith/backend/internal/deck/render"
	"k8s.io/klog/v2"
)

// 阴影参数：方向角度、距离与模糊半径（磅）、不透明度百分比
const (
	shadowDirection = 45
	shadowDistance  = 3
	shadowBlur      = 4
	shadowAlpha     = 30
)

var errUnsupported = errors.New("embellishment not supported")

// embellish 尝试为形状添加圆角、阴影等装饰
// 装饰失败不影响文档生成，只记录警告
func embellish(shape ppt.Shape, items []render.Embellishment) {
	for _, item := range items {
		err := tryEmbellish(shape, item)
		if errors.Is(err, errUnsupported) {
			klog.V(6).Infof("[PPTXWriter] 跳过装饰: embellishment=%s, shape=%T", item, shape)
			continue
		}
		if err != nil {
			klog.Warningf("[PPTXWriter] 装饰未生效，使用普通形状: embellishment=%s, error=%v", item, err)
		}
	}
}

// tryEmbellish 圆角只作用于矩形 AutoShape，阴影只作用于图片
func tryEmbellish(target ppt.Shape, item render.Embellishment) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch item {
	case render.RoundedCorners:
		shape, ok := target.(*ppt.AutoShape)
		if !ok || shape.GetAutoShapeType() != ppt.AutoShapeRectangle {
			return errUnsupported
		}
		shape.SetAutoShapeType(ppt.AutoShapeRoundedRect)
		return nil
	case render.DropShadow:
		img, ok := target.(*ppt.DrawingShape)
		if !ok {
			return errUnsupported
		}
		shadow := img.GetShadow().SetVisible(true).SetDirection(shadowDirection).SetDistance(shadowDistance)
		shadow.BlurRadius = shadowBlur
		shadow.Alpha = shadowAlpha
		shadow.Color = ppt.NewColor("FF000000")
		return nil
	default:
		return errUnsupported
	}
}
