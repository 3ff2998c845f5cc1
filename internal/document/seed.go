package document

import "pagebuilder-go-server/domain/entity"

// Seed 新建页面时的初始文档（捐款活动页模板）
func Seed(gen IDGenerator) *Document {
	return &Document{blocks: []entity.Block{
		{
			ID:   gen.NewID(),
			Type: entity.BlockLogo,
			Content: &entity.LogoContent{
				ImageURL: "/placeholder.svg",
				Alt:      "Campaign Logo",
				Width:    300,
				Height:   150,
			},
		},
		{
			ID:   gen.NewID(),
			Type: entity.BlockHero,
			Content: &entity.HeroContent{
				Title:    "Donate to Your Campaign",
				Subtitle: "Help us build a movement for change in our community.",
			},
		},
		{
			ID:   gen.NewID(),
			Type: entity.BlockDescription,
			Content: &entity.DescriptionContent{
				Text: "Your candidate is fighting for the values that matter most to our community. " +
					"Join our grassroots campaign and help make a difference.",
			},
		},
		{
			ID:   gen.NewID(),
			Type: entity.BlockDonationAmounts,
			Content: &entity.DonationAmountsContent{
				Amounts:      []float64{10, 25, 50, 100, 250, 500},
				CustomAmount: true,
				Monthly:      true,
			},
		},
		{
			ID:   gen.NewID(),
			Type: entity.BlockPaymentOptions,
			Content: &entity.PaymentOptionsContent{
				Methods: []entity.PaymentMethod{entity.PaymentCredit, entity.PaymentPayPal, entity.PaymentVenmo},
			},
		},
	}}
}

// AddBlock 按类型使用默认内容新建组件并追加到末尾
func (d *Document) AddBlock(gen IDGenerator, t entity.BlockType) entity.Block {
	block := entity.NewBlock(gen.NewID(), t)
	d.Append(block)
	return block
}
