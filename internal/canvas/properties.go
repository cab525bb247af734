package canvas

import (
	"fmt"
	"sort"
)

// set_property commands arrive from outside the process, so writable
// properties are an explicit allow-list per node type rather than arbitrary
// field assignment. Anything not listed here is rejected.

type propertySetter func(n *Node, value interface{}) error

var propertySetters = map[string]propertySetter{
	"name": func(n *Node, v interface{}) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("name must be a string")
		}
		n.Name = s
		return nil
	},
	"x": func(n *Node, v interface{}) error {
		f, err := toFloat(v)
		if err != nil {
			return fmt.Errorf("x: %w", err)
		}
		n.X = f
		return nil
	},
	"y": func(n *Node, v interface{}) error {
		f, err := toFloat(v)
		if err != nil {
			return fmt.Errorf("y: %w", err)
		}
		n.Y = f
		return nil
	},
	"width": func(n *Node, v interface{}) error {
		f, err := toFloat(v)
		if err != nil {
			return fmt.Errorf("width: %w", err)
		}
		if f < 0 {
			return fmt.Errorf("width must not be negative")
		}
		n.Width = f
		return nil
	},
	"height": func(n *Node, v interface{}) error {
		f, err := toFloat(v)
		if err != nil {
			return fmt.Errorf("height: %w", err)
		}
		if f < 0 {
			return fmt.Errorf("height must not be negative")
		}
		n.Height = f
		return nil
	},
	"opacity": func(n *Node, v interface{}) error {
		f, err := toFloat(v)
		if err != nil {
			return fmt.Errorf("opacity: %w", err)
		}
		if f < 0 || f > 1 {
			return fmt.Errorf("opacity must be between 0 and 1")
		}
		n.Opacity = f
		return nil
	},
	"visible": func(n *Node, v interface{}) error {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("visible must be a boolean")
		}
		n.Visible = b
		return nil
	},
	"cornerRadius": func(n *Node, v interface{}) error {
		f, err := toFloat(v)
		if err != nil {
			return fmt.Errorf("cornerRadius: %w", err)
		}
		if f < 0 {
			return fmt.Errorf("cornerRadius must not be negative")
		}
		n.CornerRadius = f
		return nil
	},
	"fills": func(n *Node, v interface{}) error {
		raw, ok := v.([]interface{})
		if !ok {
			return fmt.Errorf("fills must be an array of paint objects")
		}
		fills := make([]map[string]interface{}, 0, len(raw))
		for _, item := range raw {
			paint, ok := item.(map[string]interface{})
			if !ok {
				return fmt.Errorf("fills must be an array of paint objects")
			}
			fills = append(fills, paint)
		}
		n.Fills = fills
		return nil
	},
}

var allowedProperties = map[NodeType]map[string]bool{
	NodeFrame: {
		"name": true, "x": true, "y": true, "width": true, "height": true,
		"opacity": true, "visible": true, "cornerRadius": true, "fills": true,
	},
	NodeComponent: {
		"name": true, "x": true, "y": true, "width": true, "height": true,
		"opacity": true, "visible": true, "cornerRadius": true, "fills": true,
	},
	// Group geometry derives from members; only presentation is writable.
	NodeGroup: {
		"name": true, "x": true, "y": true, "opacity": true, "visible": true,
	},
}

// SetProperty applies a single allow-listed property write to a node.
func (d *Document) SetProperty(id, key string, value interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	node, _, _ := d.findNode(id)
	if node == nil {
		return fmt.Errorf("node not found: %s", id)
	}

	allowed := allowedProperties[node.Type]
	if !allowed[key] {
		return fmt.Errorf("property %q is not writable on a %s (writable: %s)",
			key, node.Type, writableList(allowed))
	}

	setter, ok := propertySetters[key]
	if !ok {
		return fmt.Errorf("property %q is not writable", key)
	}
	return setter(node, value)
}

func writableList(allowed map[string]bool) string {
	keys := make([]string, 0, len(allowed))
	for k := range allowed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += k
	}
	return out
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
