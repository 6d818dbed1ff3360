package rickmorty

import (
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/core"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/connector/httpstream"
)

// CharactersStreamName is the catalog name of the characters stream.
const CharactersStreamName = "characters"

// Characters reads GET <base>/character, keyed by "id".
type Characters struct {
	httpstream.HTTPStream
}

// NewCharacters creates the characters stream
func NewCharacters() *Characters {
	return &Characters{
		HTTPStream: httpstream.HTTPStream{
			StreamName: CharactersStreamName,
			StreamPath: "character",
			Key:        "id",
		},
	}
}

// Schema describes a character as returned by the API. Records are not
// validated against it.
func (c *Characters) Schema() core.Schema {
	return core.Schema{
		Name:        c.Name(),
		Description: "Characters of the Rick and Morty series",
		PrimaryKey:  []string{c.PrimaryKey()},
		Fields: []core.Field{
			{Name: "id", Type: core.FieldTypeInt, Primary: true},
			{Name: "name", Type: core.FieldTypeString},
			{Name: "status", Type: core.FieldTypeString, Description: "Alive, Dead or unknown"},
			{Name: "species", Type: core.FieldTypeString},
			{Name: "type", Type: core.FieldTypeString, Nullable: true},
			{Name: "gender", Type: core.FieldTypeString},
			{Name: "origin", Type: core.FieldTypeJSON},
			{Name: "location", Type: core.FieldTypeJSON},
			{Name: "image", Type: core.FieldTypeString},
			{Name: "episode", Type: core.FieldTypeArray},
			{Name: "url", Type: core.FieldTypeString},
			{Name: "created", Type: core.FieldTypeTimestamp},
		},
		SupportedSyncModes: []core.SyncMode{core.SyncModeFullRefresh},
	}
}

// schemaStream is a stream that can describe itself for discovery.
type schemaStream interface {
	httpstream.Stream
	Schema() core.Schema
}

// Streams returns every stream the source exposes, in catalog order.
func Streams() []httpstream.Stream {
	return []httpstream.Stream{NewCharacters()}
}
