// Package model inspects avatar glTF files for the blend shapes the
// lip-sync timeline drives. The fan pipeline never renders the mesh;
// it only needs to know which mouth parameters the model exposes so a
// timeline can be validated against it before an animation runs.
package model

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/rs/zerolog"
)

// LoadError wraps a model loading failure with the file path.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("model: load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Model is a loaded glTF document with its morph target names resolved.
type Model struct {
	path   string
	doc    *gltf.Document
	logger zerolog.Logger

	morphTargets []string
}

// Load opens a glTF or GLB file and resolves its morph target names.
func Load(path string, logger zerolog.Logger) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	m := &Model{
		path:   path,
		doc:    doc,
		logger: logger.With().Str("component", "model").Logger(),
	}
	m.morphTargets = m.resolveMorphTargets()

	m.logger.Info().
		Str("path", path).
		Int("nodes", len(doc.Nodes)).
		Int("meshes", len(doc.Meshes)).
		Int("morphTargets", len(m.morphTargets)).
		Msg("Model loaded")

	return m, nil
}

// Path returns the file the model was loaded from.
func (m *Model) Path() string { return m.path }

// NodeNames lists the names of all nodes in the scene graph.
func (m *Model) NodeNames() []string {
	names := make([]string, 0, len(m.doc.Nodes))
	for _, n := range m.doc.Nodes {
		names = append(names, n.Name)
	}
	return names
}

// FindNode returns the index of the named node, or -1.
func (m *Model) FindNode(name string) int {
	for i, n := range m.doc.Nodes {
		if n.Name == name {
			return i
		}
	}
	return -1
}

// MorphTargetNames lists the blend shape names exposed by the model's
// meshes, in declaration order.
func (m *Model) MorphTargetNames() []string {
	out := make([]string, len(m.morphTargets))
	copy(out, m.morphTargets)
	return out
}

// HasMorphTarget reports whether the model exposes the named blend
// shape.
func (m *Model) HasMorphTarget(name string) bool {
	for _, t := range m.morphTargets {
		if t == name {
			return true
		}
	}
	return false
}

// HasMouthShapes reports whether the model exposes every blend
// parameter named in params. A model missing mouth shapes still
// animates, it just cannot lip-sync.
func (m *Model) HasMouthShapes(params []string) bool {
	for _, p := range params {
		if !m.HasMorphTarget(p) {
			return false
		}
	}
	return len(params) > 0
}

// Info summarizes the model for diagnostics output.
type Info struct {
	Path         string   `json:"path"`
	Nodes        int      `json:"nodes"`
	Meshes       int      `json:"meshes"`
	MorphTargets []string `json:"morphTargets"`
}

// Describe returns a summary of the loaded model.
func (m *Model) Describe() Info {
	return Info{
		Path:         m.path,
		Nodes:        len(m.doc.Nodes),
		Meshes:       len(m.doc.Meshes),
		MorphTargets: m.MorphTargetNames(),
	}
}

// resolveMorphTargets reads target names from mesh extras, the
// convention most exporters follow. Unnamed targets get positional
// placeholders so indices stay aligned.
func (m *Model) resolveMorphTargets() []string {
	var names []string
	for _, mesh := range m.doc.Meshes {
		if len(mesh.Primitives) == 0 || len(mesh.Primitives[0].Targets) == 0 {
			continue
		}
		count := len(mesh.Primitives[0].Targets)

		resolved := make([]string, count)
		for i := range resolved {
			resolved[i] = fmt.Sprintf("target_%d", i)
		}
		if extras, ok := mesh.Extras.(map[string]interface{}); ok {
			if targetNames, ok := extras["targetNames"].([]interface{}); ok {
				for i, name := range targetNames {
					if i >= count {
						break
					}
					if s, ok := name.(string); ok {
						resolved[i] = s
					}
				}
			}
		}
		names = append(names, resolved...)
	}
	return names
}
