package document

import (
	"encoding/json"
	"testing"

	"pagebuilder-go-server/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== 属性编辑器单元测试 ==========

func donationDoc(amounts ...float64) *Document {
	return New([]entity.Block{{
		ID:      "amounts",
		Type:    entity.BlockDonationAmounts,
		Content: &entity.DonationAmountsContent{Amounts: amounts, CustomAmount: true, Monthly: false},
	}})
}

func paymentDoc(methods ...entity.PaymentMethod) *Document {
	return New([]entity.Block{{
		ID:      "pay",
		Type:    entity.BlockPaymentOptions,
		Content: &entity.PaymentOptionsContent{Methods: methods},
	}})
}

func TestEditor_AddAmount_AppendsDefault(t *testing.T) {
	doc := donationDoc(10, 25, 50)

	updated, err := ApplyEdit(doc, "amounts", AddAmount{})

	require.NoError(t, err)
	assert.True(t, updated)
	block, _ := doc.Block("amounts")
	content := block.Content.(*entity.DonationAmountsContent)
	assert.Equal(t, []float64{10, 25, 50, 100}, content.Amounts)
	assert.True(t, content.CustomAmount) // 未提及字段保持不变
}

func TestEditor_SetAmount_NoSortNoDedup(t *testing.T) {
	doc := donationDoc(10, 25, 50)

	_, err := ApplyEdit(doc, "amounts", SetAmount{Index: 2, Value: 10})
	require.NoError(t, err)

	block, _ := doc.Block("amounts")
	assert.Equal(t, []float64{10, 25, 10}, block.Content.(*entity.DonationAmountsContent).Amounts)
}

func TestEditor_SetAmount_IndexOutOfRange(t *testing.T) {
	doc := donationDoc(10)
	before := doc.Blocks()

	_, err := ApplyEdit(doc, "amounts", SetAmount{Index: 1, Value: 5})

	assert.ErrorIs(t, err, ErrAmountIndexOutOfRange)
	assert.Equal(t, before, doc.Blocks())
}

func TestEditor_ToggleMethod_Sequence(t *testing.T) {
	doc := paymentDoc(entity.PaymentCredit)

	_, err := ApplyEdit(doc, "pay", ToggleMethod{Method: entity.PaymentPayPal})
	require.NoError(t, err)
	block, _ := doc.Block("pay")
	assert.Equal(t, []entity.PaymentMethod{entity.PaymentCredit, entity.PaymentPayPal},
		block.Content.(*entity.PaymentOptionsContent).Methods)

	_, err = ApplyEdit(doc, "pay", ToggleMethod{Method: entity.PaymentCredit})
	require.NoError(t, err)
	block, _ = doc.Block("pay")
	assert.Equal(t, []entity.PaymentMethod{entity.PaymentPayPal},
		block.Content.(*entity.PaymentOptionsContent).Methods)
}

func TestEditor_ToggleMethod_LastOffLeavesEmptySet(t *testing.T) {
	doc := paymentDoc(entity.PaymentVenmo)

	_, err := ApplyEdit(doc, "pay", ToggleMethod{Method: entity.PaymentVenmo})
	require.NoError(t, err)

	encoded, err := doc.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"pay","type":"paymentOptions","content":{"methods":[]}}]`, string(encoded))
}

func TestEditor_ToggleMethod_Unknown(t *testing.T) {
	doc := paymentDoc(entity.PaymentCredit)

	_, err := ApplyEdit(doc, "pay", ToggleMethod{Method: "bitcoin"})

	assert.ErrorIs(t, err, ErrUnknownPaymentMethod)
}

func TestEditor_SetText_AcceptsAnyString(t *testing.T) {
	doc := New([]entity.Block{
		{ID: "hero", Type: entity.BlockHero, Content: &entity.HeroContent{Title: "T", Subtitle: "S"}},
		{ID: "desc", Type: entity.BlockDescription, Content: &entity.DescriptionContent{Text: "D"}},
	})

	_, err := ApplyEdit(doc, "hero", SetText{Field: FieldTitle, Value: ""})
	require.NoError(t, err)
	_, err = ApplyEdit(doc, "desc", SetText{Field: FieldText, Value: "<b>**any**</b>"})
	require.NoError(t, err)

	hero, _ := doc.Block("hero")
	assert.Equal(t, &entity.HeroContent{Title: "", Subtitle: "S"}, hero.Content)
	desc, _ := doc.Block("desc")
	assert.Equal(t, "<b>**any**</b>", desc.Content.(*entity.DescriptionContent).Text)
}

func TestEditor_FieldNotApplicable(t *testing.T) {
	testCases := []struct {
		name string
		edit Edit
	}{
		{"text field on hero", SetText{Field: FieldText, Value: "x"}},
		{"dimension on hero", SetDimension{Field: FieldWidth, Value: 10}},
		{"flag on hero", SetFlag{Field: FieldMonthly, Value: true}},
		{"amount on hero", AddAmount{}},
		{"method on hero", ToggleMethod{Method: entity.PaymentPayPal}},
		{"image on hero", SetImage{URL: "/x.png", FileName: "x.png"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := New([]entity.Block{{ID: "hero", Type: entity.BlockHero, Content: &entity.HeroContent{Title: "T"}}})
			before := doc.Blocks()

			updated, err := ApplyEdit(doc, "hero", tc.edit)

			assert.ErrorIs(t, err, ErrFieldNotApplicable)
			assert.False(t, updated)
			assert.Equal(t, before, doc.Blocks())
		})
	}
}

func TestEditor_MissingBlockIsSilent(t *testing.T) {
	doc := donationDoc(10)

	updated, err := ApplyEdit(doc, "nope", AddAmount{})

	assert.NoError(t, err)
	assert.False(t, updated)
}

func TestEditor_SetImage_DerivesAlt(t *testing.T) {
	doc := New([]entity.Block{{
		ID:      "logo",
		Type:    entity.BlockLogo,
		Content: &entity.LogoContent{ImageURL: "/placeholder.svg", Alt: "Logo", Width: 200, Height: 100},
	}})

	_, err := ApplyEdit(doc, "logo", SetImage{URL: "https://cdn.example.com/u/abc.png", FileName: "my-campaign.logo.png"})
	require.NoError(t, err)

	block, _ := doc.Block("logo")
	assert.Equal(t, &entity.LogoContent{
		ImageURL: "https://cdn.example.com/u/abc.png",
		Alt:      "my-campaign.logo",
		Width:    200,
		Height:   100,
	}, block.Content)
}

func TestAltFromFileName(t *testing.T) {
	testCases := map[string]string{
		"logo.png":             "logo",
		"archive.tar.gz":       "archive.tar",
		"noext":                "noext",
		"dir/sub/banner.webp":  "banner",
		`C:\Users\me\pic.jpeg`: "pic",
		"":                     "",
	}
	for in, want := range testCases {
		assert.Equal(t, want, AltFromFileName(in), in)
	}
}

func TestEditCommand_Decode(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		want    Edit
		wantErr error
	}{
		{"set text", `{"op":"setText","field":"title","value":"Hello"}`, SetText{Field: FieldTitle, Value: "Hello"}, nil},
		{"set dimension", `{"op":"setDimension","field":"width","value":320}`, SetDimension{Field: FieldWidth, Value: 320}, nil},
		{"set flag", `{"op":"setFlag","field":"monthly","value":true}`, SetFlag{Field: FieldMonthly, Value: true}, nil},
		{"set amount", `{"op":"setAmount","index":1,"value":12.5}`, SetAmount{Index: 1, Value: 12.5}, nil},
		{"add amount", `{"op":"addAmount"}`, AddAmount{}, nil},
		{"toggle", `{"op":"toggleMethod","method":"venmo"}`, ToggleMethod{Method: entity.PaymentVenmo}, nil},
		{"set image", `{"op":"setImage","url":"/u/x.png","fileName":"x.png"}`, SetImage{URL: "/u/x.png", FileName: "x.png"}, nil},
		{"unknown op", `{"op":"explode"}`, nil, ErrUnknownEdit},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var cmd EditCommand
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &cmd))

			edit, err := cmd.Edit()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, edit)
		})
	}
}

func TestEditCommand_MissingValue(t *testing.T) {
	_, err := EditCommand{Op: OpSetText, Field: FieldTitle}.Edit()
	assert.Error(t, err)
}
