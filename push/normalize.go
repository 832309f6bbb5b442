package push

import (
	"encoding/json"

	"github.com/unkn0wn-root/rescache/resource"
)

// Normalize maps one raw payload onto the canonical change shape:
//
//	{type: "create"|"update"|"delete"|"patch", item?, id?, patch?, resource?}
//
// Payloads that are not valid JSON return a *ParseError. Valid JSON that
// does not describe a change (wrong top-level type, unknown shape, missing
// required fields) is dropped with ok=false and no error. A payload with an
// unrecognized type but an item attached is mapped to an update, which the
// cache treats as an upsert anyway.
func Normalize(raw []byte) (resource.Change, bool, error) {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return resource.Change{}, false, &ParseError{Err: err}
	}
	obj, ok := probe.(map[string]any)
	if !ok {
		return resource.Change{}, false, nil
	}

	typ, _ := obj["type"].(string)
	res, _ := obj["resource"].(string)
	item := asItem(obj["item"])
	patch, _ := obj["patch"].(map[string]any)
	id := resource.CanonicalKey(obj["id"])

	switch typ {
	case "create":
		if item == nil {
			return resource.Change{}, false, nil
		}
		return resource.Change{Type: resource.ChangeCreate, Resource: res, Item: item}, true, nil
	case "update":
		if item == nil {
			return resource.Change{}, false, nil
		}
		return resource.Change{Type: resource.ChangeUpdate, Resource: res, Item: item}, true, nil
	case "delete":
		if id == "" {
			return resource.Change{}, false, nil
		}
		return resource.Change{Type: resource.ChangeDelete, Resource: res, ID: id}, true, nil
	case "patch":
		if id == "" || patch == nil {
			return resource.Change{}, false, nil
		}
		return resource.Change{Type: resource.ChangePatch, Resource: res, ID: id, Patch: patch}, true, nil
	default:
		if typ != "" && item != nil {
			return resource.Change{Type: resource.ChangeUpdate, Resource: res, Item: item}, true, nil
		}
		return resource.Change{}, false, nil
	}
}

func asItem(v any) resource.Item {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return resource.Item(m)
}
