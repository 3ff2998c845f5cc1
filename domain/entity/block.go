package entity

import (
	"encoding/json"
	"fmt"
)

// BlockType 组件类型（封闭集合，创建后不可修改）
type BlockType string

const (
	BlockLogo            BlockType = "logo"
	BlockHero            BlockType = "hero"
	BlockDescription     BlockType = "description"
	BlockDonationAmounts BlockType = "donationAmounts"
	BlockPaymentOptions  BlockType = "paymentOptions"
)

// BlockTypes 按组件库展示顺序排列
var BlockTypes = []BlockType{
	BlockLogo,
	BlockHero,
	BlockDescription,
	BlockDonationAmounts,
	BlockPaymentOptions,
}

// Known 是否属于封闭集合
func (t BlockType) Known() bool {
	for _, k := range BlockTypes {
		if k == t {
			return true
		}
	}
	return false
}

// PaymentMethod 支付方式枚举
type PaymentMethod string

const (
	PaymentCredit    PaymentMethod = "credit"
	PaymentPayPal    PaymentMethod = "paypal"
	PaymentVenmo     PaymentMethod = "venmo"
	PaymentApplePay  PaymentMethod = "applepay"
	PaymentGooglePay PaymentMethod = "googlepay"
)

// PaymentMethods 属性面板中的全部可选支付方式
var PaymentMethods = []PaymentMethod{
	PaymentCredit,
	PaymentPayPal,
	PaymentVenmo,
	PaymentApplePay,
	PaymentGooglePay,
}

// Valid 是否为已知支付方式
func (m PaymentMethod) Valid() bool {
	for _, k := range PaymentMethods {
		if k == m {
			return true
		}
	}
	return false
}

// ========== Content: 按类型区分的内容（tagged union）==========
// 字段缺省时保持零值，渲染时再回退到空/默认展示，创建时不补齐

// Content 组件内容，每种 BlockType 对应一个具体结构体
type Content interface {
	BlockType() BlockType
}

type LogoContent struct {
	ImageURL string `json:"imageUrl"`
	Alt      string `json:"alt"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type HeroContent struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

type DescriptionContent struct {
	Text string `json:"text"`
}

// DonationAmountsContent Amounts 保持用户录入顺序，不排序不去重
type DonationAmountsContent struct {
	Amounts      []float64 `json:"amounts"`
	CustomAmount bool      `json:"customAmount"`
	Monthly      bool      `json:"monthly"`
}

// PaymentOptionsContent Methods 语义上是集合，但保留插入顺序
type PaymentOptionsContent struct {
	Methods []PaymentMethod `json:"methods"`
}

// UnknownContent 未知类型（数据损坏或前向不兼容）
// 原样保留 JSON，保证读出再写回不丢数据
type UnknownContent struct {
	Type BlockType       `json:"-"`
	Raw  json.RawMessage `json:"-"`
}

func (*LogoContent) BlockType() BlockType            { return BlockLogo }
func (*HeroContent) BlockType() BlockType            { return BlockHero }
func (*DescriptionContent) BlockType() BlockType     { return BlockDescription }
func (*DonationAmountsContent) BlockType() BlockType { return BlockDonationAmounts }
func (*PaymentOptionsContent) BlockType() BlockType  { return BlockPaymentOptions }
func (c *UnknownContent) BlockType() BlockType       { return c.Type }

func (c *UnknownContent) MarshalJSON() ([]byte, error) {
	if len(c.Raw) == 0 {
		return []byte("{}"), nil
	}
	return c.Raw, nil
}

func (c *UnknownContent) UnmarshalJSON(data []byte) error {
	c.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// NewContent 返回指定类型的空内容（全零值）
func NewContent(t BlockType) Content {
	switch t {
	case BlockLogo:
		return &LogoContent{}
	case BlockHero:
		return &HeroContent{}
	case BlockDescription:
		return &DescriptionContent{}
	case BlockDonationAmounts:
		return &DonationAmountsContent{}
	case BlockPaymentOptions:
		return &PaymentOptionsContent{}
	default:
		return &UnknownContent{Type: t}
	}
}

// DefaultContentFor 新建组件时使用的默认内容
// 纯函数，对未知类型返回空内容而不是报错
func DefaultContentFor(t BlockType) Content {
	switch t {
	case BlockHero:
		return &HeroContent{Title: "New Title", Subtitle: "New Subtitle"}
	case BlockDescription:
		return &DescriptionContent{Text: "Add your description here..."}
	case BlockDonationAmounts:
		return &DonationAmountsContent{Amounts: []float64{25, 50, 100}, CustomAmount: true, Monthly: false}
	case BlockPaymentOptions:
		return &PaymentOptionsContent{Methods: []PaymentMethod{PaymentCredit}}
	case BlockLogo:
		return &LogoContent{ImageURL: "/placeholder.svg", Alt: "Logo", Width: 200, Height: 100}
	default:
		return &UnknownContent{Type: t}
	}
}

// CloneContent 深拷贝内容，切片不与原对象共享底层数组
func CloneContent(c Content) Content {
	switch v := c.(type) {
	case *LogoContent:
		cp := *v
		return &cp
	case *HeroContent:
		cp := *v
		return &cp
	case *DescriptionContent:
		cp := *v
		return &cp
	case *DonationAmountsContent:
		cp := *v
		cp.Amounts = append([]float64(nil), v.Amounts...)
		return &cp
	case *PaymentOptionsContent:
		cp := *v
		cp.Methods = append([]PaymentMethod(nil), v.Methods...)
		return &cp
	case *UnknownContent:
		cp := *v
		cp.Raw = append(json.RawMessage(nil), v.Raw...)
		return &cp
	case nil:
		return nil
	default:
		return c
	}
}

// ========== Block ==========

// Block 页面中的一个组件（PageComponent）
// ID 在文档内唯一，重排和编辑都不会改变它
type Block struct {
	ID      string
	Type    BlockType
	Content Content
	Styles  map[string]any // 预留字段，目前逻辑不使用，原样透传
}

// NewBlock 使用默认内容创建组件
func NewBlock(id string, t BlockType) Block {
	return Block{ID: id, Type: t, Content: DefaultContentFor(t)}
}

// Clone 深拷贝
func (b Block) Clone() Block {
	cp := b
	cp.Content = CloneContent(b.Content)
	if b.Styles != nil {
		cp.Styles = make(map[string]any, len(b.Styles))
		for k, v := range b.Styles {
			cp.Styles[k] = v
		}
	}
	return cp
}

// blockWire 序列化格式 {id, type, content, styles?}
type blockWire struct {
	ID      string          `json:"id"`
	Type    BlockType       `json:"type"`
	Content json.RawMessage `json:"content"`
	Styles  map[string]any  `json:"styles,omitempty"`
}

func (b Block) MarshalJSON() ([]byte, error) {
	content := b.Content
	if content == nil {
		content = NewContent(b.Type)
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal content of block %s: %w", b.ID, err)
	}
	return json.Marshal(blockWire{
		ID:      b.ID,
		Type:    b.Type,
		Content: raw,
		Styles:  b.Styles,
	})
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var w blockWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	content := NewContent(w.Type)
	if len(w.Content) > 0 && string(w.Content) != "null" {
		if err := json.Unmarshal(w.Content, content); err != nil {
			return fmt.Errorf("decode %s content of block %s: %w", w.Type, w.ID, err)
		}
	}

	b.ID = w.ID
	b.Type = w.Type
	b.Content = content
	b.Styles = w.Styles
	return nil
}

// EncodeBlocks 序列化组件序列，数组顺序即渲染顺序
// nil 序列编码为 []，而不是 null
func EncodeBlocks(blocks []Block) ([]byte, error) {
	if blocks == nil {
		blocks = []Block{}
	}
	return json.Marshal(blocks)
}

// DecodeBlocks 反序列化组件序列，空输入视为空文档
func DecodeBlocks(data []byte) ([]Block, error) {
	if len(data) == 0 || string(data) == "null" {
		return []Block{}, nil
	}
	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, err
	}
	if blocks == nil {
		blocks = []Block{}
	}
	return blocks, nil
}
