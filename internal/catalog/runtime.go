package catalog

import "fmt"

// RuntimeDefinitions lists the globals and static methods that the
// corejs-2 runtime package ships as standalone modules.
type RuntimeDefinitions struct {
	builtins map[string]string
	methods  map[string]map[string]string
}

type rawRuntimeDefinitions struct {
	Builtins map[string]string            `json:"builtins"`
	Methods  map[string]map[string]string `json:"methods"`
}

func loadRuntimeDefinitions(path string) (RuntimeDefinitions, error) {
	var raw rawRuntimeDefinitions
	if err := decodeFile(path, &raw); err != nil {
		return RuntimeDefinitions{}, err
	}
	if len(raw.Builtins) == 0 {
		return RuntimeDefinitions{}, fmt.Errorf("%s: no builtins defined", path)
	}
	return RuntimeDefinitions{builtins: raw.Builtins, methods: raw.Methods}, nil
}

// Builtin returns the core-js module path for a global such as Promise.
func (d RuntimeDefinitions) Builtin(name string) (string, bool) {
	path, ok := d.builtins[name]
	return path, ok
}

func (d RuntimeDefinitions) HasMethods(object string) bool {
	_, ok := d.methods[object]
	return ok
}

// Method returns the core-js module path for a static method such as
// Array.from.
func (d RuntimeDefinitions) Method(object, property string) (string, bool) {
	methods, ok := d.methods[object]
	if !ok {
		return "", false
	}
	path, ok := methods[property]
	return path, ok
}
