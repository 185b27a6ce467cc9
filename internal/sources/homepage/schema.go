package homepage

// ServicesConfig is the top-level structure of Homepage's services.yaml.
// Group and service names are dynamic keys: [{Group: [{Name: props}]}].
type ServicesConfig []map[string][]map[string]ServiceProps

// ServiceProps holds the properties of one Homepage service. Only the
// fields homenav reads or writes are typed; widgets are carried through
// untouched on import and never emitted on export.
type ServiceProps struct {
	Href        string         `yaml:"href,omitempty"`
	Icon        string         `yaml:"icon,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Target      string         `yaml:"target,omitempty"`
	Ping        string         `yaml:"ping,omitempty"`
	SiteMonitor string         `yaml:"siteMonitor,omitempty"`
	Widget      map[string]any `yaml:"widget,omitempty"`
}
