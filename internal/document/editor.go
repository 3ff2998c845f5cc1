package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"pagebuilder-go-server/domain/entity"
)

// ========== 属性编辑器 ==========
// 每种编辑都是一个具体类型，对内容变体做类型匹配后生成部分更新，
// 再统一通过 UpdateByID 提交

var (
	ErrFieldNotApplicable    = errors.New("field does not apply to this block type")
	ErrAmountIndexOutOfRange = errors.New("amount index out of range")
	ErrUnknownPaymentMethod  = errors.New("unknown payment method")
	ErrUnknownEdit           = errors.New("unknown edit operation")
	ErrUnknownBlockType      = errors.New("unknown block type")
)

// DefaultNewAmount "Add Amount" 追加的默认金额
const DefaultNewAmount = 100

// Field 可编辑字段（JSON 字段名）
type Field string

const (
	FieldImageURL     Field = "imageUrl"
	FieldAlt          Field = "alt"
	FieldWidth        Field = "width"
	FieldHeight       Field = "height"
	FieldTitle        Field = "title"
	FieldSubtitle     Field = "subtitle"
	FieldText         Field = "text"
	FieldAmounts      Field = "amounts"
	FieldCustomAmount Field = "customAmount"
	FieldMonthly      Field = "monthly"
	FieldMethods      Field = "methods"
)

// Edit 一次属性编辑
type Edit interface {
	// Patch 针对当前内容生成部分更新
	Patch(current entity.Content) (Patch, error)
}

// SetText 设置文本字段（不做任何校验，允许空串）
type SetText struct {
	Field Field
	Value string
}

func (e SetText) Patch(current entity.Content) (Patch, error) {
	switch current.(type) {
	case *entity.LogoContent:
		if e.Field == FieldImageURL || e.Field == FieldAlt {
			return Patch{string(e.Field): e.Value}, nil
		}
	case *entity.HeroContent:
		if e.Field == FieldTitle || e.Field == FieldSubtitle {
			return Patch{string(e.Field): e.Value}, nil
		}
	case *entity.DescriptionContent:
		if e.Field == FieldText {
			return Patch{string(e.Field): e.Value}, nil
		}
	}
	return nil, notApplicable(e.Field, current)
}

// SetDimension 设置 logo 宽高
type SetDimension struct {
	Field Field
	Value int
}

func (e SetDimension) Patch(current entity.Content) (Patch, error) {
	if _, ok := current.(*entity.LogoContent); ok && (e.Field == FieldWidth || e.Field == FieldHeight) {
		return Patch{string(e.Field): e.Value}, nil
	}
	return nil, notApplicable(e.Field, current)
}

// SetFlag 设置捐款组件的开关
type SetFlag struct {
	Field Field
	Value bool
}

func (e SetFlag) Patch(current entity.Content) (Patch, error) {
	if _, ok := current.(*entity.DonationAmountsContent); ok && (e.Field == FieldCustomAmount || e.Field == FieldMonthly) {
		return Patch{string(e.Field): e.Value}, nil
	}
	return nil, notApplicable(e.Field, current)
}

// SetAmount 替换指定下标的金额
type SetAmount struct {
	Index int
	Value float64
}

func (e SetAmount) Patch(current entity.Content) (Patch, error) {
	c, ok := current.(*entity.DonationAmountsContent)
	if !ok {
		return nil, notApplicable(FieldAmounts, current)
	}
	if e.Index < 0 || e.Index >= len(c.Amounts) {
		return nil, fmt.Errorf("%w: %d (len %d)", ErrAmountIndexOutOfRange, e.Index, len(c.Amounts))
	}
	amounts := append([]float64(nil), c.Amounts...)
	amounts[e.Index] = e.Value
	return Patch{string(FieldAmounts): amounts}, nil
}

// AddAmount 在末尾追加一个默认金额，不排序不去重
type AddAmount struct{}

func (AddAmount) Patch(current entity.Content) (Patch, error) {
	c, ok := current.(*entity.DonationAmountsContent)
	if !ok {
		return nil, notApplicable(FieldAmounts, current)
	}
	amounts := make([]float64, 0, len(c.Amounts)+1)
	amounts = append(amounts, c.Amounts...)
	amounts = append(amounts, DefaultNewAmount)
	return Patch{string(FieldAmounts): amounts}, nil
}

// ToggleMethod 开关某个支付方式：不存在则追加，存在则过滤掉
type ToggleMethod struct {
	Method entity.PaymentMethod
}

func (e ToggleMethod) Patch(current entity.Content) (Patch, error) {
	c, ok := current.(*entity.PaymentOptionsContent)
	if !ok {
		return nil, notApplicable(FieldMethods, current)
	}
	if !e.Method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, e.Method)
	}

	methods := make([]entity.PaymentMethod, 0, len(c.Methods)+1)
	found := false
	for _, m := range c.Methods {
		if m == e.Method {
			found = true
			continue
		}
		methods = append(methods, m)
	}
	if !found {
		methods = append(methods, e.Method)
	}
	return Patch{string(FieldMethods): methods}, nil
}

// SetImage 上传成功后写回 logo：覆盖 imageUrl，alt 取文件名（去扩展名）
type SetImage struct {
	URL      string
	FileName string
}

func (e SetImage) Patch(current entity.Content) (Patch, error) {
	if _, ok := current.(*entity.LogoContent); !ok {
		return nil, notApplicable(FieldImageURL, current)
	}
	return Patch{
		string(FieldImageURL): e.URL,
		string(FieldAlt):      AltFromFileName(e.FileName),
	}, nil
}

// AltFromFileName "campaign-logo.final.png" -> "campaign-logo.final"
func AltFromFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ApplyEdit 对指定组件应用编辑
// 组件不存在时静默返回 (false, nil)
func ApplyEdit(doc *Document, blockID string, edit Edit) (bool, error) {
	block, ok := doc.Block(blockID)
	if !ok {
		return false, nil
	}
	patch, err := edit.Patch(block.Content)
	if err != nil {
		return false, err
	}
	return doc.UpdateByID(blockID, patch)
}

func notApplicable(field Field, current entity.Content) error {
	t := entity.BlockType("")
	if current != nil {
		t = current.BlockType()
	}
	return fmt.Errorf("%w: %s on %s", ErrFieldNotApplicable, field, t)
}

// ========== 编辑指令（HTTP / WebSocket 传输格式）==========

// EditOp 编辑指令类型
type EditOp string

const (
	OpSetText      EditOp = "setText"
	OpSetDimension EditOp = "setDimension"
	OpSetFlag      EditOp = "setFlag"
	OpSetAmount    EditOp = "setAmount"
	OpAddAmount    EditOp = "addAmount"
	OpToggleMethod EditOp = "toggleMethod"
	OpSetImage     EditOp = "setImage"
)

// EditCommand 编辑指令
// 例: {"op":"toggleMethod","method":"paypal"}、{"op":"setAmount","index":1,"value":30}
type EditCommand struct {
	Op       EditOp               `json:"op"`
	Field    Field                `json:"field,omitempty"`
	Index    int                  `json:"index,omitempty"`
	Value    json.RawMessage      `json:"value,omitempty"`
	Method   entity.PaymentMethod `json:"method,omitempty"`
	URL      string               `json:"url,omitempty"`
	FileName string               `json:"fileName,omitempty"`
}

// Edit 把传输格式转换为具体的 Edit
func (c EditCommand) Edit() (Edit, error) {
	switch c.Op {
	case OpSetText:
		var v string
		if err := decodeValue(c.Value, &v); err != nil {
			return nil, err
		}
		return SetText{Field: c.Field, Value: v}, nil
	case OpSetDimension:
		var v int
		if err := decodeValue(c.Value, &v); err != nil {
			return nil, err
		}
		return SetDimension{Field: c.Field, Value: v}, nil
	case OpSetFlag:
		var v bool
		if err := decodeValue(c.Value, &v); err != nil {
			return nil, err
		}
		return SetFlag{Field: c.Field, Value: v}, nil
	case OpSetAmount:
		var v float64
		if err := decodeValue(c.Value, &v); err != nil {
			return nil, err
		}
		return SetAmount{Index: c.Index, Value: v}, nil
	case OpAddAmount:
		return AddAmount{}, nil
	case OpToggleMethod:
		return ToggleMethod{Method: c.Method}, nil
	case OpSetImage:
		return SetImage{URL: c.URL, FileName: c.FileName}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEdit, c.Op)
	}
}

func decodeValue(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("edit value is required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid edit value: %w", err)
	}
	return nil
}
