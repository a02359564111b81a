// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package webcache

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Entry is one cached LOINC detail page.
type Entry struct {
	Code      string
	URL       string
	FetchedAt time.Time
	Status    int
	Body      string
}

// EntryMUS serializes Entry values for storage.
var EntryMUS = entrySer{}

type entrySer struct{}

func (entrySer) Marshal(e Entry, bs []byte) (n int) {
	n = ord.String.Marshal(e.Code, bs)
	n += ord.String.Marshal(e.URL, bs[n:])
	n += varint.Int64.Marshal(e.FetchedAt.UnixMicro(), bs[n:])
	n += varint.Int.Marshal(e.Status, bs[n:])
	n += ord.String.Marshal(e.Body, bs[n:])
	return n
}

func (entrySer) Unmarshal(bs []byte) (e Entry, n int, err error) {
	var n1 int
	e.Code, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	e.URL, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.FetchedAt = time.UnixMicro(micros).UTC()
	e.Status, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.Body, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (entrySer) Size(e Entry) (size int) {
	size = ord.String.Size(e.Code)
	size += ord.String.Size(e.URL)
	size += varint.Int64.Size(e.FetchedAt.UnixMicro())
	size += varint.Int.Size(e.Status)
	size += ord.String.Size(e.Body)
	return size
}

func (s entrySer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// MarshalEntry serializes an Entry to bytes.
func MarshalEntry(e *Entry) []byte {
	buf := make([]byte, EntryMUS.Size(*e))
	EntryMUS.Marshal(*e, buf)
	return buf
}

// UnmarshalEntry deserializes an Entry from bytes.
func UnmarshalEntry(data []byte) (*Entry, error) {
	e, _, err := EntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
