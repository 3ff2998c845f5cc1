package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanvas_SelectToggles(t *testing.T) {
	c := NewCanvas(newABC())

	assert.Equal(t, "B", c.Select("B"))
	assert.True(t, c.IsSelected("B"))

	// 选中另一个：至多一个选中
	assert.Equal(t, "C", c.Select("C"))
	assert.False(t, c.IsSelected("B"))

	// 再次点击已选中组件：取消选中
	assert.Equal(t, "", c.Select("C"))
	_, ok := c.Selected()
	assert.False(t, ok)
}

func TestCanvas_UnknownIDClearsSelection(t *testing.T) {
	c := NewCanvas(newABC())
	c.Select("A")

	assert.Equal(t, "", c.Select("ghost"))
	_, ok := c.Selected()
	assert.False(t, ok)
}

func TestCanvas_PreviewModeSuppressesSelection(t *testing.T) {
	c := NewCanvas(newABC())
	c.Select("A")

	c.SetMode(ModePreview)
	_, ok := c.Selected()
	assert.False(t, ok)

	assert.Equal(t, "", c.Select("A"))
	assert.Equal(t, ModePreview, c.Mode())

	c.SetMode(ModeEdit)
	assert.Equal(t, "A", c.Select("A"))
}

func TestCanvas_RemovedBlockIsNotSelected(t *testing.T) {
	doc := newABC()
	c := NewCanvas(doc)
	c.Select("B")

	doc.RemoveByID("B")

	_, ok := c.Selected()
	assert.False(t, ok)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModePreview, ParseMode("preview"))
	assert.Equal(t, ModeEdit, ParseMode("edit"))
	assert.Equal(t, ModeEdit, ParseMode(""))
	assert.Equal(t, ModeEdit, ParseMode("bogus"))
}
