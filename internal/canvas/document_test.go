package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentHasDefaultPage(t *testing.T) {
	doc := NewDocument()

	pages := doc.Pages()
	require.Len(t, pages, 1)
	assert.Equal(t, "Page 1", pages[0].Name)
	assert.NotEmpty(t, pages[0].ID)
}

func TestPageLifecycle(t *testing.T) {
	doc := NewDocument()

	id := doc.CreatePage("Wireframes")
	require.NoError(t, doc.RenamePage(id, "Wireframes v2"))

	pages := doc.Pages()
	require.Len(t, pages, 2)
	assert.Equal(t, "Wireframes v2", pages[1].Name)

	require.NoError(t, doc.DeletePage(id))
	assert.Len(t, doc.Pages(), 1)

	assert.Error(t, doc.RenamePage(id, "gone"))
	assert.Error(t, doc.DeletePage("1:999"))
}

func TestLastPageCannotBeDeleted(t *testing.T) {
	doc := NewDocument()

	err := doc.DeletePage(doc.Pages()[0].ID)
	assert.ErrorContains(t, err, "last page")
}

func TestCreateFrameDefaultsToFirstPage(t *testing.T) {
	doc := NewDocument()

	id, err := doc.CreateFrame("", "Hero", 1440, 900, 10, 20)
	require.NoError(t, err)

	node, _, _ := doc.findNode(id)
	require.NotNil(t, node)
	assert.Equal(t, NodeFrame, node.Type)
	assert.Equal(t, "Hero", node.Name)
	assert.Equal(t, 1440.0, node.Width)
	assert.Equal(t, 10.0, node.X)
	assert.Equal(t, 1.0, node.Opacity)
	assert.True(t, node.Visible)
}

func TestCreateNodeOnMissingPage(t *testing.T) {
	doc := NewDocument()

	_, err := doc.CreateFrame("1:999", "Hero", 100, 100, 0, 0)
	assert.ErrorContains(t, err, "page not found")
}

func TestMoveRenameDeleteNode(t *testing.T) {
	doc := NewDocument()
	id, err := doc.CreateComponent("", "Button", 120, 40, 0, 0)
	require.NoError(t, err)

	require.NoError(t, doc.MoveNode(id, 50, 60))
	require.NoError(t, doc.RenameNode(id, "Button/Primary"))

	node, _, _ := doc.findNode(id)
	assert.Equal(t, 50.0, node.X)
	assert.Equal(t, 60.0, node.Y)
	assert.Equal(t, "Button/Primary", node.Name)

	require.NoError(t, doc.DeleteNode(id))
	node, _, _ = doc.findNode(id)
	assert.Nil(t, node)

	assert.Error(t, doc.MoveNode(id, 0, 0))
	assert.Error(t, doc.RenameNode(id, "x"))
	assert.Error(t, doc.DeleteNode(id))
}

func TestGroupAndUngroupNodes(t *testing.T) {
	doc := NewDocument()
	a, _ := doc.CreateFrame("", "A", 10, 10, 0, 0)
	b, _ := doc.CreateFrame("", "B", 10, 10, 20, 0)
	c, _ := doc.CreateFrame("", "C", 10, 10, 40, 0)

	groupID, err := doc.GroupNodes([]string{a, b}, "Pair")
	require.NoError(t, err)

	group, siblings, idx := doc.findNode(groupID)
	require.NotNil(t, group)
	assert.Equal(t, NodeGroup, group.Type)
	require.Len(t, group.Children, 2)
	assert.Equal(t, a, group.Children[0].ID)
	assert.Equal(t, b, group.Children[1].ID)

	// The group takes the first member's slot; C keeps its position after it.
	assert.Equal(t, 0, idx)
	require.Len(t, *siblings, 2)
	assert.Equal(t, c, (*siblings)[1].ID)

	// Members are findable inside the group.
	inner, _, _ := doc.findNode(a)
	require.NotNil(t, inner)

	require.NoError(t, doc.UngroupNode(groupID))
	group, _, _ = doc.findNode(groupID)
	assert.Nil(t, group)

	restored, siblings, _ := doc.findNode(a)
	require.NotNil(t, restored)
	assert.Len(t, *siblings, 3, "ungrouping splices the children back in place")
}

func TestGroupNodesValidation(t *testing.T) {
	doc := NewDocument()
	a, _ := doc.CreateFrame("", "A", 10, 10, 0, 0)

	_, err := doc.GroupNodes([]string{a}, "Solo")
	assert.ErrorContains(t, err, "at least two")

	_, err = doc.GroupNodes([]string{a, "1:999"}, "Missing")
	assert.ErrorContains(t, err, "not found")

	// Nodes in different containers cannot be grouped.
	b, _ := doc.CreateFrame("", "B", 10, 10, 0, 0)
	groupID, err := doc.GroupNodes([]string{a, b}, "Pair")
	require.NoError(t, err)
	outside, _ := doc.CreateFrame("", "Outside", 10, 10, 0, 0)

	_, err = doc.GroupNodes([]string{a, outside}, "Cross")
	assert.ErrorContains(t, err, "not a sibling")

	assert.ErrorContains(t, doc.UngroupNode(outside), "not a group")
	require.NoError(t, doc.UngroupNode(groupID))
}

func TestStyles(t *testing.T) {
	doc := NewDocument()

	id := doc.CreateStyle("Brand/Primary", "PAINT", map[string]interface{}{"color": "#0055FF"})
	require.NotEmpty(t, id)

	styles := doc.Styles()
	require.Len(t, styles, 1)
	assert.Equal(t, "Brand/Primary", styles[0].Name)
	assert.Equal(t, "PAINT", styles[0].StyleType)
}

func TestSetPropertyOnFrame(t *testing.T) {
	doc := NewDocument()
	id, _ := doc.CreateFrame("", "Hero", 100, 100, 0, 0)

	require.NoError(t, doc.SetProperty(id, "opacity", 0.5))
	require.NoError(t, doc.SetProperty(id, "visible", false))
	require.NoError(t, doc.SetProperty(id, "cornerRadius", 8.0))
	require.NoError(t, doc.SetProperty(id, "fills", []interface{}{
		map[string]interface{}{"type": "SOLID", "color": "#FFFFFF"},
	}))

	node, _, _ := doc.findNode(id)
	assert.Equal(t, 0.5, node.Opacity)
	assert.False(t, node.Visible)
	assert.Equal(t, 8.0, node.CornerRadius)
	require.Len(t, node.Fills, 1)
}

func TestSetPropertyValidation(t *testing.T) {
	doc := NewDocument()
	id, _ := doc.CreateFrame("", "Hero", 100, 100, 0, 0)

	assert.Error(t, doc.SetProperty(id, "opacity", 1.5))
	assert.Error(t, doc.SetProperty(id, "width", -5.0))
	assert.Error(t, doc.SetProperty(id, "visible", "yes"))
	assert.Error(t, doc.SetProperty(id, "fills", "red"))
	assert.Error(t, doc.SetProperty("1:999", "name", "x"))

	err := doc.SetProperty(id, "rotation", 45.0)
	assert.ErrorContains(t, err, "not writable")
	assert.ErrorContains(t, err, "writable:", "the rejection names the writable set")
}

func TestGroupGeometryIsNotWritable(t *testing.T) {
	doc := NewDocument()
	a, _ := doc.CreateFrame("", "A", 10, 10, 0, 0)
	b, _ := doc.CreateFrame("", "B", 10, 10, 20, 0)
	groupID, err := doc.GroupNodes([]string{a, b}, "Pair")
	require.NoError(t, err)

	assert.Error(t, doc.SetProperty(groupID, "width", 100.0))
	assert.Error(t, doc.SetProperty(groupID, "cornerRadius", 4.0))
	require.NoError(t, doc.SetProperty(groupID, "name", "Pair v2"))
	require.NoError(t, doc.SetProperty(groupID, "opacity", 0.8))
}
