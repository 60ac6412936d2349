package boltpersistence

import (
	"encoding/json"

	"github.com/dogmatiq/marshalkit"
	"github.com/gunndabad/formflow-sub000/internal/x/bboltx"
	"github.com/gunndabad/formflow-sub000/persistence"
	"go.etcd.io/bbolt"
)

// record is the JSON representation of a persisted entry.
//
// The state payload itself stays opaque; only its media type and bytes are
// recorded.
type record struct {
	JourneyName string            `json:"journeyName"`
	StateType   string            `json:"stateType"`
	MediaType   string            `json:"mediaType"`
	Data        []byte            `json:"data,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	Completed   bool              `json:"completed,omitempty"`
}

func recordFromEntry(e persistence.Entry) record {
	return record{
		JourneyName: e.JourneyName,
		StateType:   e.StateType,
		MediaType:   e.State.MediaType,
		Data:        e.State.Data,
		Properties:  e.Properties,
		Completed:   e.Completed,
	}
}

func (r record) toEntry(key string) persistence.Entry {
	if r.Properties == nil {
		r.Properties = map[string]string{}
	}

	return persistence.Entry{
		JourneyName: r.JourneyName,
		Key:         key,
		StateType:   r.StateType,
		State: marshalkit.Packet{
			MediaType: r.MediaType,
			Data:      r.Data,
		},
		Properties: r.Properties,
		Completed:  r.Completed,
	}
}

// loadRecord reads and decodes the record stored under key in b.
func loadRecord(b *bbolt.Bucket, key string) (record, bool) {
	data := b.Get([]byte(key))
	if data == nil {
		return record{}, false
	}

	var rec record
	bboltx.Must(json.Unmarshal(data, &rec))

	return rec, true
}

// saveRecord encodes and writes rec under key in b.
func saveRecord(b *bbolt.Bucket, key string, rec record) {
	data, err := json.Marshal(rec)
	bboltx.Must(err)

	bboltx.Put(b, []byte(key), data)
}
