package core

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed demo/*.csv
var demoFiles embed.FS

// DefaultDemo is the dataset used when the demo flag is set without a name.
const DefaultDemo = "vgsales"

// DemoSet holds the bundled demo datasets, keyed by name.
type DemoSet map[string]Upload

// BundledDemos returns the demo datasets embedded in the binary.
func BundledDemos() DemoSet {
	entries, err := demoFiles.ReadDir("demo")
	if err != nil {
		panic(fmt.Sprintf("read embedded demos: %v", err))
	}

	set := make(DemoSet, len(entries))
	for _, e := range entries {
		data, err := demoFiles.ReadFile(path.Join("demo", e.Name()))
		if err != nil {
			panic(fmt.Sprintf("read embedded demo %s: %v", e.Name(), err))
		}
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		set[name] = Upload{Name: e.Name(), Data: data}
	}
	return set
}

// Get returns a demo by name; an empty name selects DefaultDemo.
func (d DemoSet) Get(name string) (Upload, error) {
	if name == "" {
		name = DefaultDemo
	}
	up, ok := d[name]
	if !ok {
		return Upload{}, fmt.Errorf("%w: %q", ErrUnknownDemo, name)
	}
	return up, nil
}

// Names returns the demo names in sorted order.
func (d DemoSet) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SourceKind tells where a run's data came from.
type SourceKind string

const (
	SourceUpload SourceKind = "upload"
	SourceDemo   SourceKind = "demo"
)

// Source is the input chosen for a run.
type Source struct {
	Kind   SourceKind
	Upload Upload
}

// SelectSource picks the input for a run, in order:
//  1. an upload, when present, regardless of useDemo
//  2. the named demo, when useDemo is set
//  3. otherwise ErrNoData, and the run halts
func SelectSource(upload *Upload, useDemo bool, demos DemoSet, demoName string) (Source, error) {
	if upload != nil {
		return Source{Kind: SourceUpload, Upload: *upload}, nil
	}
	if !useDemo {
		return Source{}, ErrNoData
	}
	up, err := demos.Get(demoName)
	if err != nil {
		return Source{}, err
	}
	return Source{Kind: SourceDemo, Upload: up}, nil
}
