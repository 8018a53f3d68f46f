package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// modelFile is the on-disk YAML shape of a mapped domain model
type modelFile struct {
	Entities      []entityDoc       `yaml:"entities"`
	Composites    []compositeDoc    `yaml:"composites"`
	Collections   []collectionDoc   `yaml:"collections"`
	FetchProfiles []fetchProfileDoc `yaml:"fetch_profiles"`
}

type entityDoc struct {
	Name       string         `yaml:"name"`
	Table      string         `yaml:"table"`
	Supertype  string         `yaml:"supertype"`
	Abstract   bool           `yaml:"abstract"`
	Identifier *attributeDoc  `yaml:"identifier"`
	Attributes []attributeDoc `yaml:"attributes"`
}

type compositeDoc struct {
	Name       string         `yaml:"name"`
	Attributes []attributeDoc `yaml:"attributes"`
}

type attributeDoc struct {
	Name     string    `yaml:"name"`
	Kind     string    `yaml:"kind"`
	Type     string    `yaml:"type"`
	Target   string    `yaml:"target"`
	Nullable bool      `yaml:"nullable"`
	Fetch    *fetchDoc `yaml:"fetch"`
}

type fetchDoc struct {
	Timing string `yaml:"timing"`
	Style  string `yaml:"style"`
}

type elementDoc struct {
	Kind   string `yaml:"kind"`
	Target string `yaml:"target"`
	Type   string `yaml:"type"`
}

type collectionDoc struct {
	Owner     string      `yaml:"owner"`
	Attribute string      `yaml:"attribute"`
	Table     string      `yaml:"table"`
	Element   elementDoc  `yaml:"element"`
	Index     *elementDoc `yaml:"index"`
}

type fetchProfileDoc struct {
	Name      string              `yaml:"name"`
	Overrides map[string]fetchDoc `yaml:"overrides"`
}

// LoadModelFile reads a YAML model file into a new, validated registry
func LoadModelFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	return LoadModel(f)
}

// LoadModel reads a YAML model into a new, validated registry
func LoadModel(r io.Reader) (*Registry, error) {
	var doc modelFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}

	registry := NewRegistry()

	for _, cd := range doc.Composites {
		attrs, err := buildAttributes(cd.Name, cd.Attributes)
		if err != nil {
			return nil, err
		}
		if err := registry.RegisterComposite(NewCompositeSchema(cd.Name, attrs...)); err != nil {
			return nil, err
		}
	}

	for _, ed := range doc.Entities {
		entity := NewEntitySchema(ed.Name)
		if ed.Table != "" {
			entity.TableName = ed.Table
		}
		entity.Supertype = ed.Supertype
		entity.Abstract = ed.Abstract
		if ed.Identifier != nil {
			id, err := buildAttribute(ed.Name, *ed.Identifier)
			if err != nil {
				return nil, err
			}
			entity.WithIdentifier(id)
		}
		attrs, err := buildAttributes(ed.Name, ed.Attributes)
		if err != nil {
			return nil, err
		}
		entity.WithAttributes(attrs...)
		if err := registry.RegisterEntity(entity); err != nil {
			return nil, err
		}
	}

	for _, cd := range doc.Collections {
		element, err := buildElement(cd.Element)
		if err != nil {
			return nil, fmt.Errorf("collection %s.%s: %w", cd.Owner, cd.Attribute, err)
		}
		collection := NewCollectionSchema(cd.Owner, cd.Attribute, element)
		if cd.Table != "" {
			collection.TableName = cd.Table
		}
		if cd.Index != nil {
			index, err := buildElement(*cd.Index)
			if err != nil {
				return nil, fmt.Errorf("collection %s index: %w", collection.Role, err)
			}
			collection.Index = &index
		}
		if err := registry.RegisterCollection(collection); err != nil {
			return nil, err
		}
	}

	for _, pd := range doc.FetchProfiles {
		profile := NewFetchProfile(pd.Name)
		for key, fd := range pd.Overrides {
			fs, err := ParseFetchStrategy(fd.Timing, fd.Style)
			if err != nil {
				return nil, fmt.Errorf("fetch profile %s, %s: %w", pd.Name, key, err)
			}
			profile.Overrides[key] = fs
		}
		if err := registry.RegisterFetchProfile(profile); err != nil {
			return nil, err
		}
	}

	if err := registry.ValidateAll(); err != nil {
		return nil, err
	}

	return registry, nil
}

func buildAttributes(owner string, docs []attributeDoc) ([]*Attribute, error) {
	attrs := make([]*Attribute, 0, len(docs))
	for _, ad := range docs {
		attr, err := buildAttribute(owner, ad)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func buildAttribute(owner string, ad attributeDoc) (*Attribute, error) {
	kind := KindBasic
	if ad.Kind != "" {
		k, err := ParseAttributeKind(ad.Kind)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", owner, ad.Name, err)
		}
		kind = k
	}

	attr := &Attribute{
		Name:     ad.Name,
		Kind:     kind,
		Target:   ad.Target,
		Nullable: ad.Nullable,
		Fetch:    DefaultFetchStrategy(kind),
	}

	if ad.Type != "" {
		pt, err := ParsePrimitiveType(ad.Type)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", owner, ad.Name, err)
		}
		attr.Type = pt
	}

	if ad.Fetch != nil {
		fs, err := ParseFetchStrategy(ad.Fetch.Timing, ad.Fetch.Style)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", owner, ad.Name, err)
		}
		attr.Fetch = fs
	}

	return attr, nil
}

func buildElement(ed elementDoc) (ElementDescriptor, error) {
	kind, err := ParseElementKind(ed.Kind)
	if err != nil {
		return ElementDescriptor{}, err
	}
	d := ElementDescriptor{Kind: kind, Target: ed.Target}
	if ed.Type != "" {
		pt, err := ParsePrimitiveType(ed.Type)
		if err != nil {
			return ElementDescriptor{}, err
		}
		d.Type = pt
	}
	return d, nil
}
