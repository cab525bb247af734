package executor

import (
	"fmt"

	"github.com/ternarybob/stencil/internal/canvas"
	"github.com/ternarybob/stencil/internal/models"
)

// DocumentHandlers builds the handler table for a canvas document. The keys
// are the command type enumeration; the batch type is dispatched by the
// executor itself and never appears here.
func DocumentHandlers(doc *canvas.Document) map[models.CommandType]Handler {
	return map[models.CommandType]Handler{
		models.CommandCreatePage: func(params map[string]interface{}) (interface{}, error) {
			name := optString(params, "name", "Untitled")
			pageID := doc.CreatePage(name)
			return map[string]interface{}{"pageId": pageID, "name": name}, nil
		},
		models.CommandRenamePage: func(params map[string]interface{}) (interface{}, error) {
			pageID, err := requireString(params, "pageId")
			if err != nil {
				return nil, err
			}
			name, err := requireString(params, "name")
			if err != nil {
				return nil, err
			}
			if err := doc.RenamePage(pageID, name); err != nil {
				return nil, err
			}
			return map[string]interface{}{"pageId": pageID, "name": name}, nil
		},
		models.CommandDeletePage: func(params map[string]interface{}) (interface{}, error) {
			pageID, err := requireString(params, "pageId")
			if err != nil {
				return nil, err
			}
			if err := doc.DeletePage(pageID); err != nil {
				return nil, err
			}
			return map[string]interface{}{"pageId": pageID}, nil
		},
		models.CommandCreateFrame: func(params map[string]interface{}) (interface{}, error) {
			return createNode(params, doc.CreateFrame)
		},
		models.CommandCreateComponent: func(params map[string]interface{}) (interface{}, error) {
			return createNode(params, doc.CreateComponent)
		},
		models.CommandCreateStyle: func(params map[string]interface{}) (interface{}, error) {
			name, err := requireString(params, "name")
			if err != nil {
				return nil, err
			}
			styleType := optString(params, "styleType", "PAINT")
			properties, _ := params["properties"].(map[string]interface{})
			styleID := doc.CreateStyle(name, styleType, properties)
			return map[string]interface{}{"styleId": styleID, "name": name}, nil
		},
		models.CommandMoveNode: func(params map[string]interface{}) (interface{}, error) {
			nodeID, err := requireString(params, "nodeId")
			if err != nil {
				return nil, err
			}
			x, err := requireFloat(params, "x")
			if err != nil {
				return nil, err
			}
			y, err := requireFloat(params, "y")
			if err != nil {
				return nil, err
			}
			if err := doc.MoveNode(nodeID, x, y); err != nil {
				return nil, err
			}
			return map[string]interface{}{"nodeId": nodeID}, nil
		},
		models.CommandRenameNode: func(params map[string]interface{}) (interface{}, error) {
			nodeID, err := requireString(params, "nodeId")
			if err != nil {
				return nil, err
			}
			name, err := requireString(params, "name")
			if err != nil {
				return nil, err
			}
			if err := doc.RenameNode(nodeID, name); err != nil {
				return nil, err
			}
			return map[string]interface{}{"nodeId": nodeID, "name": name}, nil
		},
		models.CommandDeleteNode: func(params map[string]interface{}) (interface{}, error) {
			nodeID, err := requireString(params, "nodeId")
			if err != nil {
				return nil, err
			}
			if err := doc.DeleteNode(nodeID); err != nil {
				return nil, err
			}
			return map[string]interface{}{"nodeId": nodeID}, nil
		},
		models.CommandGroupNodes: func(params map[string]interface{}) (interface{}, error) {
			ids, err := requireStringSlice(params, "nodeIds")
			if err != nil {
				return nil, err
			}
			name := optString(params, "name", "Group")
			groupID, err := doc.GroupNodes(ids, name)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"nodeId": groupID, "name": name}, nil
		},
		models.CommandUngroupNode: func(params map[string]interface{}) (interface{}, error) {
			nodeID, err := requireString(params, "nodeId")
			if err != nil {
				return nil, err
			}
			if err := doc.UngroupNode(nodeID); err != nil {
				return nil, err
			}
			return map[string]interface{}{"nodeId": nodeID}, nil
		},
		models.CommandSetProperty: func(params map[string]interface{}) (interface{}, error) {
			nodeID, err := requireString(params, "nodeId")
			if err != nil {
				return nil, err
			}
			key, err := requireString(params, "key")
			if err != nil {
				return nil, err
			}
			value, ok := params["value"]
			if !ok {
				return nil, fmt.Errorf("missing required parameter: value")
			}
			if err := doc.SetProperty(nodeID, key, value); err != nil {
				return nil, err
			}
			return map[string]interface{}{"nodeId": nodeID, "key": key}, nil
		},
	}
}

func createNode(params map[string]interface{}, create func(pageID, name string, width, height, x, y float64) (string, error)) (interface{}, error) {
	name, err := requireString(params, "name")
	if err != nil {
		return nil, err
	}
	width, err := requireFloat(params, "width")
	if err != nil {
		return nil, err
	}
	height, err := requireFloat(params, "height")
	if err != nil {
		return nil, err
	}
	pageID := optString(params, "pageId", "")
	x := optFloat(params, "x", 0)
	y := optFloat(params, "y", 0)

	nodeID, err := create(pageID, name, width, height, x, y)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"nodeId": nodeID, "name": name}, nil
}

func requireString(params map[string]interface{}, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter: %s", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %s must be a non-empty string", key)
	}
	return s, nil
}

func optString(params map[string]interface{}, key, fallback string) string {
	if s, ok := params[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func requireFloat(params map[string]interface{}, key string) (float64, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("missing required parameter: %s", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("parameter %s must be a number", key)
	}
}

func optFloat(params map[string]interface{}, key string, fallback float64) float64 {
	switch n := params[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return fallback
	}
}

func requireStringSlice(params map[string]interface{}, key string) ([]string, error) {
	raw, ok := params[key].([]interface{})
	if !ok {
		return nil, fmt.Errorf("parameter %s must be an array of strings", key)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("parameter %s must be an array of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}
