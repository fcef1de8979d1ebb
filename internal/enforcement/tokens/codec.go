package tokens

import (
	"bytes"
	"encoding/json"

	"trustgate/internal/enforcement/models"
)

// decodeJSON preserves numeric precision in action snapshots by decoding
// numbers as json.Number.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func cloneToken(t *models.ConfirmationToken) *models.ConfirmationToken {
	out := *t
	out.ActionSnapshot = t.ActionSnapshot.Clone()
	if t.UsedAt != nil {
		u := *t.UsedAt
		out.UsedAt = &u
	}
	return &out
}
