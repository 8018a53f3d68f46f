// Package schematest provides shared metadata fixtures for compiler tests.
package schematest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/querymodel/internal/orm/schema"
)

// BlogModel is a small mapped model that covers every attribute kind, a
// subtype, a key-many-to-one identifier and collections with entity,
// composite and basic elements.
const BlogModel = `
composites:
  - name: GeoPoint
    attributes:
      - {name: lat, type: float}
      - {name: lng, type: float}
  - name: Address
    attributes:
      - {name: street, type: string}
      - {name: city, type: string}
      - {name: geo, kind: embedded, target: GeoPoint}
  - name: Attachment
    attributes:
      - {name: filename, type: string}
      - {name: size, type: int}
  - name: PostStatKey
    attributes:
      - {name: post, kind: many_to_one, target: Post, fetch: {timing: immediate, style: join}}
      - {name: day, type: date}

entities:
  - name: User
    identifier: {name: id, type: uuid}
    attributes:
      - {name: name, type: string}
      - {name: address, kind: embedded, target: Address}
      - {name: manager, kind: many_to_one, target: User, nullable: true, fetch: {timing: immediate, style: join}}
      - {name: posts, kind: one_to_many, target: User.posts, fetch: {timing: delayed, style: select}}
      - {name: nicknames, kind: one_to_many, target: User.nicknames, fetch: {timing: delayed, style: select}}
  - name: Admin
    supertype: User
    attributes:
      - {name: level, type: int}
      - {name: department, kind: many_to_one, target: Department, fetch: {timing: immediate, style: join}}
  - name: Department
    identifier: {name: id, type: uuid}
    attributes:
      - {name: name, type: string}
      - {name: leads, kind: many_to_many, target: Department.leads, fetch: {timing: immediate, style: join}}
  - name: Region
    identifier: {name: id, type: uuid}
    attributes:
      - {name: name, type: string}
  - name: Post
    identifier: {name: id, type: uuid}
    attributes:
      - {name: title, type: string}
      - {name: author, kind: many_to_one, target: User, fetch: {timing: immediate, style: join}}
      - {name: comments, kind: one_to_many, target: Post.comments, fetch: {timing: immediate, style: join}}
      - {name: tags, kind: many_to_many, target: Post.tags, fetch: {timing: immediate, style: join}}
      - {name: attachments, kind: one_to_many, target: Post.attachments, fetch: {timing: immediate, style: select}}
      - {name: metadata, kind: any}
  - name: Comment
    identifier: {name: id, type: uuid}
    attributes:
      - {name: body, type: text}
      - {name: post, kind: many_to_one, target: Post, fetch: {timing: delayed, style: select}}
      - {name: author, kind: many_to_one, target: User, fetch: {timing: immediate, style: select}}
  - name: Tag
    identifier: {name: id, type: uuid}
    attributes:
      - {name: name, type: string}
  - name: PostStat
    identifier: {name: key, kind: embedded, target: PostStatKey}
    attributes:
      - {name: views, type: int}

collections:
  - {owner: User, attribute: posts, element: {kind: entity, target: Post}}
  - {owner: User, attribute: nicknames, element: {kind: basic, type: string}}
  - {owner: Post, attribute: comments, element: {kind: entity, target: Comment}}
  - {owner: Post, attribute: tags, element: {kind: entity, target: Tag}}
  - owner: Post
    attribute: attachments
    element: {kind: composite, target: Attachment}
    index: {kind: basic, type: int}
  - owner: Department
    attribute: leads
    element: {kind: entity, target: User}
    index: {kind: entity, target: Region}

fetch_profiles:
  - name: with-attachments
    overrides:
      Post.attachments: {timing: immediate, style: join}
      Post.comments: {timing: delayed, style: select}
`

// Blog loads BlogModel into a fresh registry
func Blog(t testing.TB) *schema.Registry {
	t.Helper()
	registry, err := schema.LoadModel(strings.NewReader(BlogModel))
	require.NoError(t, err)
	return registry
}
