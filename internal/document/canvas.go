package document

// Mode 画布模式
type Mode string

const (
	ModeEdit    Mode = "edit"
	ModePreview Mode = "preview"
)

// ParseMode 未知值按编辑模式处理
func ParseMode(s string) Mode {
	if Mode(s) == ModePreview {
		return ModePreview
	}
	return ModeEdit
}

// Canvas 文档视图状态：选中组件 + 模式
// 选中状态是临时 UI 状态，不持久化
type Canvas struct {
	doc      *Document
	selected string
	mode     Mode
}

func NewCanvas(doc *Document) *Canvas {
	return &Canvas{doc: doc, mode: ModeEdit}
}

func (c *Canvas) Document() *Document {
	return c.doc
}

func (c *Canvas) Mode() Mode {
	return c.mode
}

// SetMode 切换模式，进入预览模式时清除选中
func (c *Canvas) SetMode(m Mode) {
	c.mode = m
	if m == ModePreview {
		c.selected = ""
	}
}

// Select 点击组件：再次点击已选中的组件取消选中
// 预览模式下不可选中；不存在的 ID 等同于取消选中
// 返回点击后的选中 ID（空串表示无选中）
func (c *Canvas) Select(blockID string) string {
	if c.mode == ModePreview || c.doc.IndexOf(blockID) < 0 || c.selected == blockID {
		c.selected = ""
		return ""
	}
	c.selected = blockID
	return blockID
}

// ClearSelection 关闭属性面板
func (c *Canvas) ClearSelection() {
	c.selected = ""
}

// Selected 当前选中的组件，组件已被删除时视为无选中
func (c *Canvas) Selected() (string, bool) {
	if c.selected == "" || c.doc.IndexOf(c.selected) < 0 {
		return "", false
	}
	return c.selected, true
}

// IsSelected 渲染时判断
func (c *Canvas) IsSelected(blockID string) bool {
	id, ok := c.Selected()
	return ok && id == blockID
}
