package adf

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Record keys inside a document are prefixed so that body and joint entries
// cannot collide with each other or with the document-level fields.
const (
	bodyKeyPrefix  = "BODY "
	jointKeyPrefix = "JOINT "
)

// Document is an in-memory ADF document: the ordered body and joint record
// lists plus the document-level fields. Records are keyed by their on-disk
// entry key, which carries the BODY/JOINT prefix.
type Document struct {
	BodyKeys             []string
	JointKeys            []string
	HighResPath          string
	LowResPath           string
	IgnoreInterCollision bool
	Namespace            string

	bodies map[string]*BodyRecord
	joints map[string]*JointRecord
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		bodies: map[string]*BodyRecord{},
		joints: map[string]*JointRecord{},
	}
}

// BodyKey returns the document key for a body name.
func BodyKey(name string) string {
	return bodyKeyPrefix + name
}

// JointKey returns the document key for a joint name.
func JointKey(name string) string {
	return jointKeyPrefix + name
}

// AddBody appends a body record, keyed by its name, preserving insertion
// order for serialization.
func (d *Document) AddBody(rec *BodyRecord) {
	key := BodyKey(rec.Name)
	if _, ok := d.bodies[key]; !ok {
		d.BodyKeys = append(d.BodyKeys, key)
	}
	d.bodies[key] = rec
}

// AddJoint appends a joint record, keyed by its name.
func (d *Document) AddJoint(rec *JointRecord) {
	key := JointKey(rec.Name)
	if _, ok := d.joints[key]; !ok {
		d.JointKeys = append(d.JointKeys, key)
	}
	d.joints[key] = rec
}

// Body looks up a body record by document key or bare name.
func (d *Document) Body(name string) (*BodyRecord, bool) {
	if rec, ok := d.bodies[name]; ok {
		return rec, true
	}
	rec, ok := d.bodies[BodyKey(name)]
	return rec, ok
}

// Joint looks up a joint record by document key or bare name.
func (d *Document) Joint(name string) (*JointRecord, bool) {
	if rec, ok := d.joints[name]; ok {
		return rec, true
	}
	rec, ok := d.joints[JointKey(name)]
	return rec, ok
}

// Bodies returns the body records in document order.
func (d *Document) Bodies() []*BodyRecord {
	out := make([]*BodyRecord, 0, len(d.BodyKeys))
	for _, key := range d.BodyKeys {
		out = append(out, d.bodies[key])
	}
	return out
}

// Joints returns the joint records in document order.
func (d *Document) Joints() []*JointRecord {
	out := make([]*JointRecord, 0, len(d.JointKeys))
	for _, key := range d.JointKeys {
		out = append(out, d.joints[key])
	}
	return out
}

// EffectiveNamespace returns the document namespace, or the AMBF default when
// none is declared.
func (d *Document) EffectiveNamespace() string {
	if d.Namespace != "" {
		return d.Namespace
	}
	return DefaultNamespace
}

// StripKeyPrefix removes a BODY/JOINT key prefix if present.
func StripKeyPrefix(key string) string {
	if strings.HasPrefix(key, bodyKeyPrefix) {
		return strings.TrimPrefix(key, bodyKeyPrefix)
	}
	if strings.HasPrefix(key, jointKeyPrefix) {
		return strings.TrimPrefix(key, jointKeyPrefix)
	}
	return key
}

// UnmarshalYAML decodes the top-level document mapping. Body and joint
// entries are resolved through the `bodies` and `joints` name lists; an entry
// that is listed but missing from the document is an error.
func (d *Document) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.New("ADF document root must be a mapping")
	}
	d.bodies = map[string]*BodyRecord{}
	d.joints = map[string]*JointRecord{}

	raw := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		raw[node.Content[i].Value] = node.Content[i+1]
	}

	decodeField := func(key string, out interface{}) error {
		n, ok := raw[key]
		if !ok {
			return nil
		}
		return errors.Wrapf(n.Decode(out), "decoding %q", key)
	}
	if err := decodeField("bodies", &d.BodyKeys); err != nil {
		return err
	}
	if err := decodeField("joints", &d.JointKeys); err != nil {
		return err
	}
	if err := decodeField("high resolution path", &d.HighResPath); err != nil {
		return err
	}
	if err := decodeField("low resolution path", &d.LowResPath); err != nil {
		return err
	}
	if err := decodeField("namespace", &d.Namespace); err != nil {
		return err
	}
	if err := decodeField("ignore inter-collision", &d.IgnoreInterCollision); err != nil {
		return err
	}

	for _, key := range d.BodyKeys {
		n, ok := raw[key]
		if !ok {
			return errors.Errorf("body %q listed but has no record in document", key)
		}
		rec := &BodyRecord{}
		if err := n.Decode(rec); err != nil {
			return errors.Wrapf(err, "decoding body %q", key)
		}
		if rec.Name == "" {
			rec.Name = StripKeyPrefix(key)
		}
		d.bodies[key] = rec
	}
	for _, key := range d.JointKeys {
		n, ok := raw[key]
		if !ok {
			return errors.Errorf("joint %q listed but has no record in document", key)
		}
		rec := &JointRecord{}
		if err := n.Decode(rec); err != nil {
			return errors.Wrapf(err, "decoding joint %q", key)
		}
		if rec.Name == "" {
			rec.Name = StripKeyPrefix(key)
		}
		d.joints[key] = rec
	}
	return nil
}

// MarshalYAML emits the document with the bodies and joints lists first so
// that consumers can process records in order, matching the layout the AMBF
// tooling writes.
func (d *Document) MarshalYAML() (interface{}, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	appendEntry := func(key string, value interface{}) error {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
		valNode := &yaml.Node{}
		if err := valNode.Encode(value); err != nil {
			return errors.Wrapf(err, "encoding %q", key)
		}
		root.Content = append(root.Content, keyNode, valNode)
		return nil
	}

	if err := appendEntry("bodies", d.BodyKeys); err != nil {
		return nil, err
	}
	if err := appendEntry("joints", d.JointKeys); err != nil {
		return nil, err
	}
	if err := appendEntry("high resolution path", d.HighResPath); err != nil {
		return nil, err
	}
	if err := appendEntry("low resolution path", d.LowResPath); err != nil {
		return nil, err
	}
	if err := appendEntry("ignore inter-collision", d.IgnoreInterCollision); err != nil {
		return nil, err
	}
	if d.Namespace != "" {
		if err := appendEntry("namespace", d.Namespace); err != nil {
			return nil, err
		}
	}
	for _, key := range d.BodyKeys {
		if err := appendEntry(key, d.bodies[key]); err != nil {
			return nil, err
		}
	}
	for _, key := range d.JointKeys {
		if err := appendEntry(key, d.joints[key]); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// ParseDocument decodes an ADF document from YAML bytes.
func ParseDocument(data []byte) (*Document, error) {
	doc := NewDocument()
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse ADF document")
	}
	return doc, nil
}

// ReadDocumentFile loads an ADF document from a file.
func ReadDocumentFile(path string) (*Document, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read ADF file")
	}
	return ParseDocument(data)
}

// Bytes serializes the document to YAML.
func (d *Document) Bytes() ([]byte, error) {
	return yaml.Marshal(d)
}

// WriteFile serializes the document to path. An existing file is kept as a
// `.old` backup first.
func (d *Document) WriteFile(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".old"); err != nil {
			return errors.Wrap(err, "failed to back up existing file")
		}
	}
	//nolint:gosec
	return errors.Wrap(os.WriteFile(path, data, 0o644), "failed to write ADF file")
}
