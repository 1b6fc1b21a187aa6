package state

import "github.com/safeguardai/console/internal/model"

// mergeSettings lays remote over defaults. Nested maps merge
// recursively so a remote snapshot can never drop a default key;
// scalars and lists from the remote replace the default wholesale.
func mergeSettings(defaults, remote model.Settings) model.Settings {
	merged := cloneSettings(defaults)
	for key, remoteVal := range remote {
		defaultVal, exists := merged[key]
		if exists {
			defaultMap, dok := asStringMap(defaultVal)
			remoteMap, rok := asStringMap(remoteVal)
			if dok && rok {
				merged[key] = mergeSettings(defaultMap, remoteMap)
				continue
			}
		}
		merged[key] = remoteVal
	}
	return merged
}

func cloneSettings(s model.Settings) model.Settings {
	clone := make(model.Settings, len(s))
	for key, val := range s {
		if m, ok := asStringMap(val); ok {
			clone[key] = map[string]any(cloneSettings(m))
			continue
		}
		clone[key] = val
	}
	return clone
}

func asStringMap(v any) (model.Settings, bool) {
	switch m := v.(type) {
	case model.Settings:
		return m, true
	case map[string]any:
		return model.Settings(m), true
	default:
		return nil, false
	}
}
