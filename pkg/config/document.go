package config

// Section names recognised in an engine document.
const (
	SectionEngineCore    = "EngineCore"
	SectionVirtualParent = "RootPluginVirtualParent"
)

// Keys meaningful inside the EngineCore section.
const (
	KeyLockMode       = "LockMode"
	KeyMaxRootPlugins = "MaxRootPlugins"
	KeyEnabledPlugins = "EnabledRootPlugins"
)

// LockMode controls whether MaxRootPlugins caps the enabled plugin list.
type LockMode int

const (
	LockOff LockMode = 0
	LockOn  LockMode = 1
)

// Valid reports whether the mode is one of the supported values
func (m LockMode) Valid() bool {
	return m == LockOff || m == LockOn
}

func (m LockMode) String() string {
	switch m {
	case LockOff:
		return "off"
	case LockOn:
		return "on"
	default:
		return "invalid"
	}
}

// VirtualParent declares that Child is tagged with Parent.
type VirtualParent struct {
	Child  string `yaml:"child" json:"child"`
	Parent string `yaml:"parent" json:"parent"`
}

// Document is a parsed engine configuration.
type Document struct {
	LockMode       LockMode        `yaml:"lock_mode" json:"lock_mode"`
	MaxRootPlugins int             `yaml:"max_root_plugins" json:"max_root_plugins"`
	EnabledPlugins []string        `yaml:"enabled_plugins" json:"enabled_plugins"`
	VirtualParents []VirtualParent `yaml:"virtual_parents,omitempty" json:"virtual_parents,omitempty"`

	// Path is the file the document was read from; empty for Parse.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// Locked reports whether the plugin cap applies
func (d *Document) Locked() bool {
	return d.LockMode == LockOn
}
