package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseUserMap accepts a GitHub login to Shortcut user name mapping either
// as a JSON object or as a "login:name,login:name" list. A table read from
// a config file arrives as a map and is taken as is.
func ParseUserMap(raw any) (map[string]string, error) {
	return parseMapping(KeyUserMap, raw, true)
}

// ParseStateMap accepts a GitHub issue action to Shortcut workflow state
// name mapping as a JSON object.
func ParseStateMap(raw any) (map[string]string, error) {
	return parseMapping(KeyStateMap, raw, false)
}

func parseMapping(key string, raw any, allowList bool) (map[string]string, error) {
	switch v := raw.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return v, nil
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, val := range v {
			s, ok := val.(string)
			if !ok {
				return nil, &MappingParseError{Key: key, Err: fmt.Errorf("value for %q is %T, not a string", k, val)}
			}
			out[k] = s
		}
		return out, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return map[string]string{}, nil
		}
		if strings.HasPrefix(s, "{") || !allowList {
			out := map[string]string{}
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return nil, &MappingParseError{Key: key, Err: err}
			}
			return out, nil
		}
		return parsePairList(key, s)
	default:
		return nil, &MappingParseError{Key: key, Err: fmt.Errorf("unsupported value type %T", raw)}
	}
}

func parsePairList(key, s string) (map[string]string, error) {
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		login, name, ok := strings.Cut(pair, ":")
		login, name = strings.TrimSpace(login), strings.TrimSpace(name)
		if !ok || login == "" || name == "" {
			return nil, &MappingParseError{Key: key, Err: fmt.Errorf("malformed entry %q, want login:name", pair)}
		}
		out[login] = name
	}
	return out, nil
}
