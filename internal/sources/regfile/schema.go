package regfile

// File is the top-level structure of the static registration file.
type File struct {
	Services []Entry `yaml:"services"`
}

// Entry is one static registration.
type Entry struct {
	URL      string `yaml:"url"`
	Scopes   string `yaml:"scopes,omitempty"`
	Lifetime uint16 `yaml:"lifetime,omitempty"`
}
