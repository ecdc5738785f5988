package synth

import (
	"encoding/json"
	"time"

	"github.com/arkilian/layoutbench/pkg/types"
	"github.com/spaolacci/murmur3"
)

// Fingerprint hashes the deterministic content of a record. The identifier
// and the creation timestamp are zeroed first, so two generations of the same
// index and variant always produce the same fingerprint.
func Fingerprint(rec types.Record) uint64 {
	rec.ID = ""
	rec.CreatedAt = time.Time{}

	// Marshal of the typed record is deterministic: struct fields encode in
	// declaration order and there are no maps.
	data, err := json.Marshal(rec)
	if err != nil {
		return 0
	}
	return murmur3.Sum64(data)
}

// DatasetFingerprint combines per-record fingerprints. The combination is
// order independent so batches may be inserted in any order.
type DatasetFingerprint uint64

// Add folds one record into the dataset fingerprint.
func (d *DatasetFingerprint) Add(rec types.Record) {
	*d ^= DatasetFingerprint(Fingerprint(rec))
}
