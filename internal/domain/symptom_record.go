// File: internal/domain/symptom_record.go
package domain

import (
	"database/sql/driver"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// SymptomRecord is one labeled symptom description held by the vector index.
// Records are immutable once inserted; only a full corpus reset removes them.
type SymptomRecord struct {
	ID          string    `json:"id" gorm:"primaryKey;size:64"`
	Embedding   Vector    `json:"-" gorm:"type:blob;not null"`
	Disease     string    `json:"disease" gorm:"not null;index"`
	SymptomText string    `json:"symptom_text" gorm:"not null"`
	CreatedAt   time.Time `json:"-"`
}

// TableName matches the corpus collection name.
func (SymptomRecord) TableName() string {
	return "disease_symptoms"
}

// Metadata returns the metadata map stored alongside the embedding.
func (r SymptomRecord) Metadata() map[string]any {
	return map[string]any{
		"disease":  r.Disease,
		"symptoms": r.SymptomText,
	}
}

// IndexMatch is a single nearest-neighbour hit.
// Distance is cosine distance: 0 for identical direction, up to 2 for opposite.
type IndexMatch struct {
	ID          string
	Distance    float64
	Disease     string
	SymptomText string
}

// Vector is a dense embedding persisted as little-endian float32 bytes.
type Vector []float32

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf, nil
}

// Scan implements sql.Scanner.
func (v *Vector) Scan(src any) error {
	var data []byte
	switch s := src.(type) {
	case nil:
		*v = nil
		return nil
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("vector: unsupported scan type %T", src)
	}
	if len(data)%4 != 0 {
		return errors.New("vector: byte length is not a multiple of 4")
	}
	out := make(Vector, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	*v = out
	return nil
}
