package types

// ElementName names a component explicitly
type ElementName struct {
	DeviceID    string `json:"device_id,omitempty"`
	BundleName  string `json:"bundle_name,omitempty"`
	ModuleName  string `json:"module_name,omitempty"`
	AbilityName string `json:"ability_name,omitempty"`
}

// Want is an intent descriptor resolved against declared skills
type Want struct {
	Element  ElementName       `json:"element"`
	Action   string            `json:"action,omitempty"`
	Entities []string          `json:"entities,omitempty"`
	URI      string            `json:"uri,omitempty"`
	Type     string            `json:"type,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
}

// IsExplicit reports whether the want names both a bundle and a component
func (w Want) IsExplicit() bool {
	return w.Element.BundleName != "" && w.Element.AbilityName != ""
}

// HasEntity reports whether entity is listed on the want
func (w Want) HasEntity(entity string) bool {
	for _, e := range w.Entities {
		if e == entity {
			return true
		}
	}
	return false
}
