// Package source loads endpoint policy sets from their backing stores.
//
// Three sources are provided: FileSource reads YAML policy definitions from
// a file or directory tree, MemorySource serves sets registered in process,
// and GitSource keeps a local clone of a policy repository in sync and
// stamps each loaded set with the commit it came from. FileWatcher pairs
// with FileSource to trigger debounced reloads on change.
//
// Sources only load and compile. Installing the result into an enforcer,
// and the keep-old-on-failure semantics of a reload, belong to the caller.
package source
