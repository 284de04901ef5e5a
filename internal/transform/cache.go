package transform

// importCache deduplicates injected imports for one file. A hit returns a
// fresh Ref bound to the cached declaration.
type importCache struct {
	file    *File
	entries map[string]*Ref
}

func newImportCache(file *File) *importCache {
	return &importCache{file: file, entries: make(map[string]*Ref)}
}

func (c *importCache) addDefaultImport(source string, hint string, priority int) *Ref {
	key := source + ":" + hint + ":" + boolKey(c.file.IsModule())
	if cached, ok := c.entries[key]; ok {
		clone := *cached
		return &clone
	}
	ref := c.file.AddDefaultImport(source, hint, priority)
	c.entries[key] = ref
	clone := *ref
	return &clone
}

func boolKey(b bool) string {
	if b {
		return "module"
	}
	return "script"
}
