// Package render 整页 HTML 渲染（编辑模式 / 预览模式）
package render

import (
	"html/template"
	"io"

	"pagebuilder-go-server/internal/document"
	"pagebuilder-go-server/internal/registry"
)

// EmptyStateTitle 空文档占位提示
const EmptyStateTitle = "Start building your campaign page"

type blockView struct {
	ID       string
	HTML     template.HTML
	Selected bool
}

type pageView struct {
	Title   string
	Editing bool
	Blocks  []blockView
}

// PageRenderer 按画布状态渲染整页
type PageRenderer struct {
	reg  *registry.Registry
	tmpl *template.Template
}

func NewPageRenderer(reg *registry.Registry) *PageRenderer {
	return &PageRenderer{
		reg:  reg,
		tmpl: template.Must(template.New("page").Parse(pageTemplate)),
	}
}

// Render 预览模式下不输出任何编辑属性；编辑模式标记 data-block-id 和选中状态
func (p *PageRenderer) Render(w io.Writer, title string, canvas *document.Canvas) error {
	editing := canvas.Mode() == document.ModeEdit
	blocks := canvas.Document().Blocks()

	view := pageView{
		Title:   title,
		Editing: editing,
		Blocks:  make([]blockView, 0, len(blocks)),
	}
	for _, b := range blocks {
		view.Blocks = append(view.Blocks, blockView{
			ID:       b.ID,
			HTML:     p.reg.Render(b),
			Selected: editing && canvas.IsSelected(b.ID),
		})
	}
	return p.tmpl.Execute(w, view)
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<main class="canvas{{if .Editing}} canvas-edit{{else}} canvas-preview{{end}}">
{{- range .Blocks}}
{{- if $.Editing}}
<div class="builder-block{{if .Selected}} selected{{end}}" data-block-id="{{.ID}}">{{.HTML}}</div>
{{- else}}
<div class="page-block">{{.HTML}}</div>
{{- end}}
{{- else}}
<div class="empty-state"><p>` + EmptyStateTitle + `</p><p>Add components from the sidebar to get started</p></div>
{{- end}}
</main>
</body>
</html>
`
