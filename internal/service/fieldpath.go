package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pagecraft/pagecraft-backend/internal/common"
)

// pathSegment is one step of a dot/bracket field path
type pathSegment struct {
	key     string
	index   int
	isIndex bool
}

// parseFieldPath parses paths like "content.items[2].title" into
// segments. The first segment must be a key; indices are numeric.
func parseFieldPath(path string) ([]pathSegment, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", common.ErrInvalidFieldPath)
	}
	var segments []pathSegment
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, fmt.Errorf("%w: %q", common.ErrInvalidFieldPath, path)
		}
		rest := part
		for {
			open := strings.IndexByte(rest, '[')
			if open == -1 {
				if rest != "" {
					segments = append(segments, pathSegment{key: rest})
				}
				break
			}
			if open > 0 {
				segments = append(segments, pathSegment{key: rest[:open]})
			} else if len(segments) == 0 {
				return nil, fmt.Errorf("%w: path cannot start with an index", common.ErrInvalidFieldPath)
			}
			closing := strings.IndexByte(rest, ']')
			if closing <= open+1 {
				return nil, fmt.Errorf("%w: %q", common.ErrInvalidFieldPath, path)
			}
			idx, err := strconv.Atoi(rest[open+1 : closing])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("%w: bad index in %q", common.ErrInvalidFieldPath, path)
			}
			segments = append(segments, pathSegment{index: idx, isIndex: true})
			rest = rest[closing+1:]
			if rest != "" && rest[0] != '[' {
				return nil, fmt.Errorf("%w: %q", common.ErrInvalidFieldPath, path)
			}
		}
	}
	if len(segments) == 0 || segments[0].isIndex {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidFieldPath, path)
	}
	return segments, nil
}

// setAtPath writes a value into a nested JSON object, creating
// intermediate objects for missing keys. Array hops require the array
// to exist; an index equal to the current length appends, anything
// past that is rejected.
func setAtPath(root map[string]interface{}, segments []pathSegment, value interface{}) error {
	var container interface{} = root
	for i, seg := range segments {
		last := i == len(segments)-1

		if seg.isIndex {
			arr, ok := container.([]interface{})
			if !ok {
				return fmt.Errorf("%w: index into non-array", common.ErrInvalidFieldPath)
			}
			if seg.index >= len(arr) {
				return fmt.Errorf("%w: index %d out of range", common.ErrInvalidFieldPath, seg.index)
			}
			if last {
				arr[seg.index] = value
				return nil
			}
			next, err := descend(arr[seg.index], segments[i+1])
			if err != nil {
				return err
			}
			arr[seg.index] = next
			container = next
			continue
		}

		obj, ok := container.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%w: key %q into non-object", common.ErrInvalidFieldPath, seg.key)
		}
		if last {
			obj[seg.key] = value
			return nil
		}
		if next := segments[i+1]; next.isIndex {
			arr, ok := obj[seg.key].([]interface{})
			if !ok {
				return fmt.Errorf("%w: %q is not an array", common.ErrInvalidFieldPath, seg.key)
			}
			if next.index == len(arr) {
				arr = append(arr, map[string]interface{}{})
				obj[seg.key] = arr
			}
			container = obj[seg.key]
		} else {
			child, ok := obj[seg.key].(map[string]interface{})
			if !ok {
				child = map[string]interface{}{}
				obj[seg.key] = child
			}
			container = child
		}
	}
	return nil
}

// descend normalizes the value at an array slot so the walk can
// continue into it
func descend(v interface{}, next pathSegment) (interface{}, error) {
	if next.isIndex {
		arr, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: index into non-array", common.ErrInvalidFieldPath)
		}
		return arr, nil
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		if v == nil {
			return map[string]interface{}{}, nil
		}
		return nil, fmt.Errorf("%w: key into non-object", common.ErrInvalidFieldPath)
	}
	return obj, nil
}
