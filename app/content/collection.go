package content

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	CollectionProjects    = "projects"
	CollectionExperiments = "experiments"
	CollectionNotes       = "notes"
	CollectionLinks       = "links"
)

// DefaultSources maps each collection to its path on the content origin.
var DefaultSources = map[string]string{
	CollectionProjects:    "/data/projects.json",
	CollectionExperiments: "/data/experiments.json",
	CollectionNotes:       "/data/notes.json",
	CollectionLinks:       "/data/links.json",
}

var collectionKinds = map[string]Kind{
	CollectionProjects:    KindProject,
	CollectionExperiments: KindExperiment,
	CollectionNotes:       KindNote,
	CollectionLinks:       KindLink,
}

// KindFor returns the card kind for a collection name.
func KindFor(collection string) Kind {
	if kind, ok := collectionKinds[collection]; ok {
		return kind
	}
	return Kind(collection)
}

// Some editors save payloads with a leading byte order mark.
var utf8BOM = []byte("\xEF\xBB\xBF")

// Decode parses a collection payload. The list may be the document itself
// or wrapped in an object under "items", "data" or the collection name.
// Entries that are not JSON objects are skipped. RSS and Atom documents
// are accepted too; their entries become items with the usual field names.
func Decode(data []byte, name string) ([]RawItem, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	var list []json.RawMessage
	switch data[0] {
	case '<':
		return decodeFeed(data)
	case '[':
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to parse JSON list: %w", err)
		}
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to parse JSON object: %w", err)
		}
		for _, key := range []string{"items", "data", name} {
			raw, ok := wrapper[key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(raw, &list); err == nil {
				break
			}
			list = nil
		}
	default:
		return nil, fmt.Errorf("payload is neither a list nor an object")
	}

	items := make([]RawItem, 0, len(list))
	for _, raw := range list {
		var item RawItem
		if err := json.Unmarshal(raw, &item); err != nil || item == nil {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}
