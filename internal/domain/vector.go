package domain

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Embeddings live in JSONB columns next to the row they describe and are
// mirrored into the vector store. The JSONB copy is the source of truth for
// refits and backfills.

func MarshalVector(v []float32) datatypes.JSON {
	if len(v) == 0 {
		return nil
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(buf)
}

func UnmarshalVector(raw datatypes.JSON) []float32 {
	if len(raw) == 0 {
		return nil
	}
	var v []float32
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
