// Package registry 组件注册表：类型 -> 组件库信息、默认内容、渲染器、属性面板字段
package registry

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"pagebuilder-go-server/domain/entity"
	"pagebuilder-go-server/internal/document"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// FieldKind 属性面板控件类型
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindTextarea FieldKind = "textarea"
	KindNumber   FieldKind = "number"
	KindCheckbox FieldKind = "checkbox"
	KindAmounts  FieldKind = "amounts"
	KindMethods  FieldKind = "methods"
	KindImage    FieldKind = "image"
)

// FieldSpec 属性面板中的一个可编辑字段
type FieldSpec struct {
	Field document.Field `json:"field"`
	Label string         `json:"label"`
	Kind  FieldKind      `json:"kind"`
}

// Definition 组件库条目
type Definition struct {
	Type        entity.BlockType `json:"type"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Fields      []FieldSpec      `json:"fields"`
}

// UnknownPlaceholder 未知类型组件的占位内容
const UnknownPlaceholder = `<div class="block block-unknown">Unknown component type</div>`

var definitions = []Definition{
	{
		Type:        entity.BlockLogo,
		Name:        "Logo/Image",
		Description: "Campaign logo or header image",
		Fields: []FieldSpec{
			{Field: document.FieldImageURL, Label: "Image URL", Kind: KindImage},
			{Field: document.FieldAlt, Label: "Alt Text", Kind: KindText},
			{Field: document.FieldWidth, Label: "Width", Kind: KindNumber},
			{Field: document.FieldHeight, Label: "Height", Kind: KindNumber},
		},
	},
	{
		Type:        entity.BlockHero,
		Name:        "Hero Title",
		Description: "Main heading and subtitle",
		Fields: []FieldSpec{
			{Field: document.FieldTitle, Label: "Title", Kind: KindText},
			{Field: document.FieldSubtitle, Label: "Subtitle", Kind: KindTextarea},
		},
	},
	{
		Type:        entity.BlockDescription,
		Name:        "Description",
		Description: "Campaign description text",
		Fields: []FieldSpec{
			{Field: document.FieldText, Label: "Description Text", Kind: KindTextarea},
		},
	},
	{
		Type:        entity.BlockDonationAmounts,
		Name:        "Donation Amounts",
		Description: "Preset donation buttons",
		Fields: []FieldSpec{
			{Field: document.FieldAmounts, Label: "Donation Amounts", Kind: KindAmounts},
			{Field: document.FieldCustomAmount, Label: "Allow custom amount", Kind: KindCheckbox},
			{Field: document.FieldMonthly, Label: "Enable monthly donations", Kind: KindCheckbox},
		},
	},
	{
		Type:        entity.BlockPaymentOptions,
		Name:        "Payment Options",
		Description: "Payment method buttons",
		Fields: []FieldSpec{
			{Field: document.FieldMethods, Label: "Payment Methods", Kind: KindMethods},
		},
	},
}

// MethodLabel 支付方式展示名
func MethodLabel(m entity.PaymentMethod) string {
	switch m {
	case entity.PaymentCredit:
		return "Credit Card"
	case entity.PaymentPayPal:
		return "PayPal"
	case entity.PaymentVenmo:
		return "Venmo"
	case entity.PaymentApplePay:
		return "Apple Pay"
	case entity.PaymentGooglePay:
		return "Google Pay"
	default:
		return string(m)
	}
}

// Registry 组件注册表
type Registry struct {
	defs map[entity.BlockType]Definition
	tmpl *template.Template
	md   goldmark.Markdown
}

// New 创建注册表并编译全部组件模板
func New() *Registry {
	r := &Registry{
		defs: make(map[entity.BlockType]Definition, len(definitions)),
		md:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
	for _, d := range definitions {
		r.defs[d.Type] = d
	}
	r.tmpl = template.Must(template.New("blocks").Funcs(template.FuncMap{
		"amount":      formatAmount,
		"methodLabel": MethodLabel,
		"markdown":    r.markdown,
		"altOr": func(alt string) string {
			if alt == "" {
				return "Campaign logo"
			}
			return alt
		},
	}).Parse(blockTemplates))
	return r
}

// Library 组件库列表（固定顺序）
func (r *Registry) Library() []Definition {
	out := make([]Definition, 0, len(entity.BlockTypes))
	for _, t := range entity.BlockTypes {
		out = append(out, r.defs[t])
	}
	return out
}

// Lookup 查找组件定义
func (r *Registry) Lookup(t entity.BlockType) (Definition, bool) {
	d, ok := r.defs[t]
	return d, ok
}

// DefaultContent 新组件默认内容，未知类型返回空内容
func (r *Registry) DefaultContent(t entity.BlockType) entity.Content {
	return entity.DefaultContentFor(t)
}

// Render 渲染单个组件
// 未知类型或内容与类型不符时渲染惰性占位符，不影响其他组件
func (r *Registry) Render(block entity.Block) template.HTML {
	if _, ok := r.defs[block.Type]; !ok || block.Content == nil || block.Content.BlockType() != block.Type {
		return template.HTML(UnknownPlaceholder)
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, string(block.Type), block.Content); err != nil {
		return template.HTML(UnknownPlaceholder)
	}
	return template.HTML(buf.String())
}

// markdown 描述文本按 Markdown 渲染（原始 HTML 会被 goldmark 过滤）
func (r *Registry) markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

const blockTemplates = `
{{define "logo"}}<div class="block block-logo">{{if .ImageURL}}<img src="{{.ImageURL}}" alt="{{altOr .Alt}}"{{if .Width}} width="{{.Width}}"{{end}}{{if .Height}} height="{{.Height}}"{{end}}>{{else}}<div class="logo-placeholder">CAMPAIGN LOGO</div>{{end}}</div>{{end}}

{{define "hero"}}<div class="block block-hero"><h1>{{.Title}}</h1><p>{{.Subtitle}}</p></div>{{end}}

{{define "description"}}<div class="block block-description">{{markdown .Text}}</div>{{end}}

{{define "donationAmounts"}}<div class="block block-donation"><h3>Choose an amount:</h3><div class="amounts">{{range .Amounts}}<button type="button" class="amount" data-amount="{{amount .}}">${{amount .}}</button>{{end}}</div>{{if .CustomAmount}}<input type="number" class="custom-amount" placeholder="Custom amount">{{end}}{{if .Monthly}}<div class="frequency"><button type="button">Monthly</button><button type="button">One-time</button></div>{{end}}</div>{{end}}

{{define "paymentOptions"}}<div class="block block-payment"><h3>Payment Options</h3><button type="button" class="pay pay-credit">Pay with Card</button>{{range .Methods}}{{if ne (print .) "credit"}}<button type="button" class="pay pay-{{.}}">{{methodLabel .}}</button>{{end}}{{end}}</div>{{end}}
`
