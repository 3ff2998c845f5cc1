package document

// DraggableLocation 拖拽位置（与前端 react-beautiful-dnd 的结果结构一致）
type DraggableLocation struct {
	DroppableID string `json:"droppableId"`
	Index       int    `json:"index"`
}

// DragResult 一次拖拽手势的结果
// Destination 为 nil 表示在有效放置区域之外松手
type DragResult struct {
	DraggableID string             `json:"draggableId"`
	Source      DraggableLocation  `json:"source"`
	Destination *DraggableLocation `json:"destination"`
}

// Cancelled 拖拽是否被取消
func (r DragResult) Cancelled() bool {
	return r.Destination == nil
}

// Reorder 把拖拽结果转换为 MoveTo
// 取消的拖拽不是错误，文档保持不变
func Reorder(doc *Document, r DragResult) bool {
	if r.Cancelled() {
		return false
	}
	return doc.MoveTo(r.DraggableID, r.Source.Index, r.Destination.Index)
}
