package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	benchErrors "github.com/arkilian/layoutbench/internal/errors"
	"github.com/arkilian/layoutbench/pkg/types"
)

// FlatRow is one row of the flat layout as stored.
type FlatRow struct {
	ID          string
	Name        string
	Email       string
	Age         int
	Bio         string
	AvatarURL   sql.NullString
	Preferences string
	SocialLinks string
	CreatedAt   int64
}

// Decode rebuilds the typed record. A malformed JSON column is a parse error.
func (r *FlatRow) Decode() (types.Record, error) {
	flat := types.FlatAttributes{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Age:       r.Age,
		Bio:       r.Bio,
		CreatedAt: time.Unix(0, r.CreatedAt).UTC(),
	}
	if r.AvatarURL.Valid {
		url := r.AvatarURL.String
		flat.AvatarURL = &url
	}
	if err := json.Unmarshal([]byte(r.Preferences), &flat.Preferences); err != nil {
		return types.Record{}, benchErrors.NewParseError(benchErrors.CodeMalformedDocument,
			fmt.Sprintf("record %s: malformed preferences column", r.ID), err)
	}
	if err := json.Unmarshal([]byte(r.SocialLinks), &flat.SocialLinks); err != nil {
		return types.Record{}, benchErrors.NewParseError(benchErrors.CodeMalformedDocument,
			fmt.Sprintf("record %s: malformed social_links column", r.ID), err)
	}
	return flat.Record(), nil
}

// DocumentRow is one row of the document layout as stored.
type DocumentRow struct {
	ID        string
	Data      []byte
	Codec     string
	CreatedAt int64
}

// Payload returns the serialized document with the row's codec undone.
func (r *DocumentRow) Payload() ([]byte, error) {
	codec, err := NewCodec(r.Codec)
	if err != nil {
		return nil, benchErrors.NewParseError(benchErrors.CodeDecompressFailed,
			fmt.Sprintf("record %s: unknown codec", r.ID), err)
	}
	payload, err := codec.Decode(r.Data)
	if err != nil {
		return nil, benchErrors.NewParseError(benchErrors.CodeDecompressFailed,
			fmt.Sprintf("record %s: corrupt %s payload", r.ID, codec.Name()), err)
	}
	return payload, nil
}

// Decode decodes the document into the typed record.
func (r *DocumentRow) Decode() (types.Record, error) {
	payload, err := r.Payload()
	if err != nil {
		return types.Record{}, err
	}
	var rec types.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return types.Record{}, benchErrors.NewParseError(benchErrors.CodeMalformedDocument,
			fmt.Sprintf("record %s: malformed document", r.ID), err)
	}
	return rec, nil
}
