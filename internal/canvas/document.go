package canvas

import (
	"fmt"
	"sync"
)

// NodeType classifies a canvas node.
type NodeType string

const (
	NodeFrame     NodeType = "frame"
	NodeComponent NodeType = "component"
	NodeGroup     NodeType = "group"
)

// Node is a positionable element on a page. Groups carry children.
type Node struct {
	ID           string                   `json:"id"`
	Type         NodeType                 `json:"type"`
	Name         string                   `json:"name"`
	X            float64                  `json:"x"`
	Y            float64                  `json:"y"`
	Width        float64                  `json:"width"`
	Height       float64                  `json:"height"`
	Opacity      float64                  `json:"opacity"`
	Visible      bool                     `json:"visible"`
	CornerRadius float64                  `json:"cornerRadius,omitempty"`
	Fills        []map[string]interface{} `json:"fills,omitempty"`
	Children     []*Node                  `json:"children,omitempty"`
}

// Style is a document-level reusable style definition.
type Style struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	StyleType  string                 `json:"styleType"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// Page is a top-level container of nodes.
type Page struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Nodes []*Node `json:"nodes,omitempty"`
}

// Document is the mutable in-memory model the executor runs commands
// against. Node and page ids follow the design tool's "session:local"
// shape so results read naturally in tool output.
type Document struct {
	mu      sync.Mutex
	pages   []*Page
	styles  []*Style
	counter int
}

// NewDocument creates a document with a single default page.
func NewDocument() *Document {
	d := &Document{}
	d.pages = append(d.pages, &Page{ID: d.nextID(), Name: "Page 1"})
	return d
}

func (d *Document) nextID() string {
	d.counter++
	return fmt.Sprintf("1:%d", d.counter)
}

// CreatePage appends a new page and returns its id.
func (d *Document) CreatePage(name string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	page := &Page{ID: d.nextID(), Name: name}
	d.pages = append(d.pages, page)
	return page.ID
}

// RenamePage sets a page's name.
func (d *Document) RenamePage(id, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, page := range d.pages {
		if page.ID == id {
			page.Name = name
			return nil
		}
	}
	return fmt.Errorf("page not found: %s", id)
}

// DeletePage removes a page and everything on it. The last page cannot be
// deleted; the design tool always keeps at least one.
func (d *Document) DeletePage(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pages) == 1 {
		return fmt.Errorf("cannot delete the last page")
	}
	for i, page := range d.pages {
		if page.ID == id {
			d.pages = append(d.pages[:i], d.pages[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("page not found: %s", id)
}

// Pages returns a shallow snapshot of page ids and names.
func (d *Document) Pages() []Page {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Page, 0, len(d.pages))
	for _, page := range d.pages {
		out = append(out, Page{ID: page.ID, Name: page.Name})
	}
	return out
}

// createNode places a new node of the given type on a page. An empty pageID
// targets the first page.
func (d *Document) createNode(nodeType NodeType, pageID, name string, width, height, x, y float64) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	page := d.pages[0]
	if pageID != "" {
		page = nil
		for _, p := range d.pages {
			if p.ID == pageID {
				page = p
				break
			}
		}
		if page == nil {
			return "", fmt.Errorf("page not found: %s", pageID)
		}
	}

	node := &Node{
		ID:      d.nextID(),
		Type:    nodeType,
		Name:    name,
		X:       x,
		Y:       y,
		Width:   width,
		Height:  height,
		Opacity: 1,
		Visible: true,
	}
	page.Nodes = append(page.Nodes, node)
	return node.ID, nil
}

// CreateFrame places a frame node.
func (d *Document) CreateFrame(pageID, name string, width, height, x, y float64) (string, error) {
	return d.createNode(NodeFrame, pageID, name, width, height, x, y)
}

// CreateComponent places a component node.
func (d *Document) CreateComponent(pageID, name string, width, height, x, y float64) (string, error) {
	return d.createNode(NodeComponent, pageID, name, width, height, x, y)
}

// CreateStyle registers a document-level style and returns its id.
func (d *Document) CreateStyle(name, styleType string, properties map[string]interface{}) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	style := &Style{ID: d.nextID(), Name: name, StyleType: styleType, Properties: properties}
	d.styles = append(d.styles, style)
	return style.ID
}

// Styles returns a snapshot of registered styles.
func (d *Document) Styles() []Style {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Style, 0, len(d.styles))
	for _, s := range d.styles {
		out = append(out, *s)
	}
	return out
}

// findNode walks all pages looking for a node. Returns the node and the
// sibling slice that contains it (page root or a group's children).
func (d *Document) findNode(id string) (*Node, *[]*Node, int) {
	for _, page := range d.pages {
		if node, siblings, idx := findIn(&page.Nodes, id); node != nil {
			return node, siblings, idx
		}
	}
	return nil, nil, -1
}

func findIn(siblings *[]*Node, id string) (*Node, *[]*Node, int) {
	for i, node := range *siblings {
		if node.ID == id {
			return node, siblings, i
		}
		if len(node.Children) > 0 {
			if found, sibs, idx := findIn(&node.Children, id); found != nil {
				return found, sibs, idx
			}
		}
	}
	return nil, nil, -1
}

// MoveNode repositions a node.
func (d *Document) MoveNode(id string, x, y float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	node, _, _ := d.findNode(id)
	if node == nil {
		return fmt.Errorf("node not found: %s", id)
	}
	node.X = x
	node.Y = y
	return nil
}

// RenameNode sets a node's name.
func (d *Document) RenameNode(id, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	node, _, _ := d.findNode(id)
	if node == nil {
		return fmt.Errorf("node not found: %s", id)
	}
	node.Name = name
	return nil
}

// DeleteNode removes a node (and any children) from its container.
func (d *Document) DeleteNode(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	node, siblings, idx := d.findNode(id)
	if node == nil {
		return fmt.Errorf("node not found: %s", id)
	}
	*siblings = append((*siblings)[:idx], (*siblings)[idx+1:]...)
	return nil
}

// GroupNodes wraps the given sibling nodes in a new group node. All ids must
// live in the same container; the group takes the first member's slot.
func (d *Document) GroupNodes(ids []string, name string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(ids) < 2 {
		return "", fmt.Errorf("group_nodes requires at least two node ids")
	}

	first, container, firstIdx := d.findNode(ids[0])
	if first == nil {
		return "", fmt.Errorf("node not found: %s", ids[0])
	}

	members := make([]*Node, 0, len(ids))
	memberSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		node, sibs, _ := d.findNode(id)
		if node == nil {
			return "", fmt.Errorf("node not found: %s", id)
		}
		if sibs != container {
			return "", fmt.Errorf("node %s is not a sibling of %s", id, ids[0])
		}
		members = append(members, node)
		memberSet[id] = true
	}

	group := &Node{
		ID:       d.nextID(),
		Type:     NodeGroup,
		Name:     name,
		Opacity:  1,
		Visible:  true,
		Children: members,
	}

	kept := make([]*Node, 0, len(*container)-len(members)+1)
	for i, node := range *container {
		if i == firstIdx {
			kept = append(kept, group)
		}
		if memberSet[node.ID] {
			continue
		}
		kept = append(kept, node)
	}
	*container = kept
	return group.ID, nil
}

// UngroupNode dissolves a group, splicing its children into the group's slot.
func (d *Document) UngroupNode(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	node, siblings, idx := d.findNode(id)
	if node == nil {
		return fmt.Errorf("node not found: %s", id)
	}
	if node.Type != NodeGroup {
		return fmt.Errorf("node %s is not a group", id)
	}

	expanded := make([]*Node, 0, len(*siblings)-1+len(node.Children))
	expanded = append(expanded, (*siblings)[:idx]...)
	expanded = append(expanded, node.Children...)
	expanded = append(expanded, (*siblings)[idx+1:]...)
	*siblings = expanded
	return nil
}
