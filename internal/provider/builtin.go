package provider

// Builtin returns a registry populated with the built-in browser providers.
// Registration is an explicit list rather than an import side effect, so
// the full provider set is in place before the first resolve and building
// two registries never produces competing entries.
func Builtin() *Registry {
	r := NewRegistry()
	for _, p := range []Provider{
		chromeProvider(),
		firefoxProvider(),
		edgeProvider(),
	} {
		if err := r.Register(p); err != nil {
			// The built-in set is static; a collision here is a bug.
			panic(err)
		}
	}
	return r
}
